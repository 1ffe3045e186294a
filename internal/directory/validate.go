// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package directory

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

// MinSecretLength is the shortest accepted secret.
const MinSecretLength = 8

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ValidateUsername validates a username.
// Usernames are MinUsernameLength to MaxUsernameLength characters drawn from
// letters, digits and underscores.
func ValidateUsername(username string) error {
	if username == "" {
		return validationError(FieldUsername, "username cannot be empty")
	}
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return validationError(FieldUsername,
			"username must be %d-%d characters", MinUsernameLength, MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return validationError(FieldUsername,
			"username must contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidateEmail validates the local@domain.tld shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return validationError(FieldEmail, "email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return validationError(FieldEmail, "invalid email format")
	}
	return nil
}

// ValidateSecret validates a secret: at least MinSecretLength characters with
// one digit, one uppercase and one lowercase letter.
func ValidateSecret(secret string) error {
	if utf8.RuneCountInString(secret) < MinSecretLength {
		return validationError(FieldSecret,
			"secret must be at least %d characters", MinSecretLength)
	}

	var hasDigit, hasUpper, hasLower bool
	for _, r := range secret {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	if !hasDigit || !hasUpper || !hasLower {
		return validationError(FieldSecret,
			"secret must contain at least one digit, one uppercase, and one lowercase letter")
	}
	return nil
}
