// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package directory

import (
	"github.com/samber/oops"
)

// Error codes carried by directory errors.
const (
	CodeInvalid     = "DIRECTORY_INVALID"
	CodeConflict    = "DIRECTORY_CONFLICT"
	CodeDeactivated = "DIRECTORY_DEACTIVATED"
	CodeLocked      = "DIRECTORY_LOCKED"
)

// Field names an account attribute referenced by an error.
type Field string

// Fields subject to validation or uniqueness checks.
const (
	FieldUsername Field = "username"
	FieldEmail    Field = "email"
	FieldSecret   Field = "secret"
	FieldPattern  Field = "pattern"
)

// Kind classifies a directory error.
type Kind int

// Error kinds. KindNone is returned for nil or foreign errors.
const (
	KindNone Kind = iota
	KindValidation
	KindConflict
	KindDeactivated
	KindLocked
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindDeactivated:
		return "deactivated"
	case KindLocked:
		return "locked"
	default:
		return "none"
	}
}

func validationError(field Field, format string, args ...any) error {
	return oops.Code(CodeInvalid).
		With("field", string(field)).
		Errorf(format, args...)
}

func conflictError(field Field) error {
	return oops.Code(CodeConflict).
		With("field", string(field)).
		Errorf("%s already exists", field)
}

func deactivatedError(username string) error {
	return oops.Code(CodeDeactivated).
		With("username", username).
		Errorf("account is deactivated")
}

func lockedError(username string, attempts int) error {
	return oops.Code(CodeLocked).
		With("username", username).
		With("failed_attempts", attempts).
		Errorf("account locked due to too many failed attempts")
}

// KindOf reports the kind of a directory error.
func KindOf(err error) Kind {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindNone
	}
	switch oopsErr.Code() {
	case CodeInvalid:
		return KindValidation
	case CodeConflict:
		return KindConflict
	case CodeDeactivated:
		return KindDeactivated
	case CodeLocked:
		return KindLocked
	default:
		return KindNone
	}
}

// FieldOf returns the field named by a validation or conflict error, or "" otherwise.
func FieldOf(err error) Field {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	field, _ := oopsErr.Context()["field"].(string)
	return Field(field)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsConflict reports whether err is a uniqueness conflict.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsDeactivated reports whether err was raised for a deactivated account.
func IsDeactivated(err error) bool { return KindOf(err) == KindDeactivated }

// IsLocked reports whether err was raised for a locked account.
func IsLocked(err error) bool { return KindOf(err) == KindLocked }
