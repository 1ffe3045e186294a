// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

// Package directory provides an in-memory user directory with validation,
// authentication and login lockout.
//
// # Results
//
// Lookups and id-based mutations report a missing account with a boolean
// rather than an error:
//   - GetByID, GetByUsername, GetByEmail return (Account, bool)
//   - Update, Delete, Deactivate, Activate, ResetSecret return false
//   - Authenticate returns ok == false for both unknown usernames and wrong secrets
//
// Errors are reserved for validation failures, uniqueness conflicts, and
// deactivated or locked accounts. Use KindOf, FieldOf, or the Is* helpers to
// tell them apart.
//
// # Secrets
//
// Secrets are stored verbatim. Account.String and the audit events never
// include them; use Account.Redacted before handing an account to anything
// that renders it.
package directory
