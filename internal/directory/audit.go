// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventKind identifies a directory mutation.
type EventKind string

// Audit event kinds.
const (
	EventCreated        EventKind = "account.created"
	EventUpdated        EventKind = "account.updated"
	EventDeleted        EventKind = "account.deleted"
	EventDeactivated    EventKind = "account.deactivated"
	EventActivated      EventKind = "account.activated"
	EventLoginSucceeded EventKind = "login.succeeded"
	EventLoginFailed    EventKind = "login.failed"
	EventLocked         EventKind = "account.locked"
	EventSecretReset    EventKind = "secret.reset"
)

// Event records a single mutation. Events never carry secrets.
type Event struct {
	ID        ulid.ULID
	Kind      EventKind
	AccountID int64
	Username  string
	At        time.Time
	// Fields lists the patched fields for EventUpdated.
	Fields []Field
}

// AuditSink receives directory events. Record is called while the directory
// lock is held and must not block or call back into the directory.
type AuditSink interface {
	Record(Event)
}

// AuditSinkFunc adapts a function to AuditSink.
type AuditSinkFunc func(Event)

// Record calls f(e).
func (f AuditSinkFunc) Record(e Event) { f(e) }

// LogSink writes events to a slog.Logger at info level.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Record logs the event.
func (s *LogSink) Record(e Event) {
	attrs := []slog.Attr{
		slog.String("event_id", e.ID.String()),
		slog.String("kind", string(e.Kind)),
		slog.Int64("account_id", e.AccountID),
		slog.String("username", e.Username),
		slog.Time("at", e.At),
	}
	if len(e.Fields) > 0 {
		fields := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = string(f)
		}
		attrs = append(attrs, slog.Any("fields", fields))
	}
	s.logger.LogAttrs(context.Background(), slog.LevelInfo, "directory event", attrs...)
}

// AuthResult classifies an authentication attempt.
type AuthResult string

// Authentication outcomes.
const (
	AuthSuccess     AuthResult = "success"
	AuthUnknown     AuthResult = "unknown"
	AuthMismatch    AuthResult = "mismatch"
	AuthDeactivated AuthResult = "deactivated"
	AuthLocked      AuthResult = "locked"
)

// Observer is notified of directory activity, typically to export metrics.
// Like AuditSink, methods run under the directory lock.
type Observer interface {
	AccountCreated()
	AuthAttempt(result AuthResult)
	AccountLocked()
	AccountsChanged(stats Stats)
}

type nopObserver struct{}

func (nopObserver) AccountCreated()        {}
func (nopObserver) AuthAttempt(AuthResult) {}
func (nopObserver) AccountLocked()         {}
func (nopObserver) AccountsChanged(Stats)  {}
