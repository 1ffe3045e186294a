// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package directory

import (
	"fmt"
	"time"
)

// MaxAttempts is the number of consecutive failed authentications that locks
// and deactivates an account.
const MaxAttempts = 3

// Account is a registered user.
//
// Accounts returned by a Directory are copies; changing them has no effect on
// the stored record.
type Account struct {
	ID             int64
	Username       string
	Email          string
	Secret         string // stored verbatim
	CreatedAt      time.Time
	Active         bool
	FailedAttempts int
	LastLoginAt    *time.Time
}

// String omits the secret.
func (a Account) String() string {
	return fmt.Sprintf("Account(id=%d, username=%q, email=%q)", a.ID, a.Username, a.Email)
}

// Redacted returns a copy with the secret cleared.
func (a Account) Redacted() Account {
	a.Secret = ""
	return a
}

// IsLocked reports whether the failure counter has reached MaxAttempts.
func (a Account) IsLocked() bool {
	return a.FailedAttempts >= MaxAttempts
}

// clone returns a copy that shares no pointers with a.
func (a *Account) clone() Account {
	c := *a
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		c.LastLoginAt = &t
	}
	return c
}

// recordFailure increments the failure counter and deactivates the account
// once the threshold is reached. It returns true when this call locked it.
func (a *Account) recordFailure() bool {
	a.FailedAttempts++
	if a.FailedAttempts >= MaxAttempts {
		a.Active = false
		return true
	}
	return false
}

// recordSuccess resets the failure counter and stamps the login time.
func (a *Account) recordSuccess(now time.Time) {
	a.FailedAttempts = 0
	a.LastLoginAt = &now
}

// Patch lists the fields to change in Update. Nil fields are left alone.
type Patch struct {
	Username *string
	Email    *string
	Secret   *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.Secret == nil
}

// Stats is a point-in-time count of accounts.
type Stats struct {
	Total    int `json:"total_users"`
	Active   int `json:"active_users"`
	Inactive int `json:"inactive_users"`
	// CreationRate mirrors Total; there is no time-windowed rate yet.
	CreationRate int `json:"user_creation_rate"`
}
