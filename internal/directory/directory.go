// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package directory

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
)

// Directory is an in-memory registry of accounts.
//
// All methods are safe for concurrent use. A single mutex serializes every
// operation, so check-then-insert sequences such as uniqueness checks in
// Create cannot interleave.
type Directory struct {
	mu       sync.Mutex
	accounts map[int64]*Account
	order    []int64
	nextID   int64

	now      func() time.Time
	logger   *slog.Logger
	observer Observer
	audit    AuditSink
}

// Option configures a Directory.
type Option func(*Directory)

// WithClock overrides the time source used for CreatedAt and LastLoginAt.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLogger sets the logger. Secrets are never logged.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithObserver registers an observer for metrics.
func WithObserver(o Observer) Option {
	return func(d *Directory) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithAuditSink registers a sink for mutation events.
func WithAuditSink(s AuditSink) Option {
	return func(d *Directory) {
		d.audit = s
	}
}

// New creates an empty Directory.
func New(opts ...Option) *Directory {
	d := &Directory{
		accounts: make(map[int64]*Account),
		nextID:   1,
		now:      time.Now,
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Create validates and registers a new account.
//
// Fields are validated in the order username, email, secret; the first
// failure is returned. Uniqueness is checked only after all formats pass.
func (d *Directory) Create(username, email, secret string) (Account, error) {
	if err := ValidateUsername(username); err != nil {
		return Account{}, err
	}
	if err := ValidateEmail(email); err != nil {
		return Account{}, err
	}
	if err := ValidateSecret(secret); err != nil {
		return Account{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range d.order {
		a := d.accounts[id]
		if a.Username == username {
			return Account{}, conflictError(FieldUsername)
		}
		if a.Email == email {
			return Account{}, conflictError(FieldEmail)
		}
	}

	a := &Account{
		ID:        d.nextID,
		Username:  username,
		Email:     email,
		Secret:    secret,
		CreatedAt: d.now(),
		Active:    true,
	}
	d.accounts[a.ID] = a
	d.order = append(d.order, a.ID)
	d.nextID++

	d.logger.Debug("account created", "account_id", a.ID, "username", a.Username)
	d.observer.AccountCreated()
	d.record(EventCreated, a, nil)
	d.statsChanged()

	return a.clone(), nil
}

// GetByID returns the account with the given id.
func (d *Directory) GetByID(id int64) (Account, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.accounts[id]
	if !ok {
		return Account{}, false
	}
	return a.clone(), true
}

// GetByUsername returns the account with an exactly matching username.
func (d *Directory) GetByUsername(username string) (Account, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if a := d.findByUsername(username); a != nil {
		return a.clone(), true
	}
	return Account{}, false
}

// GetByEmail returns the account with an exactly matching email.
func (d *Directory) GetByEmail(email string) (Account, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if a := d.findByEmail(email); a != nil {
		return a.clone(), true
	}
	return Account{}, false
}

// ListAll returns every account in insertion order.
func (d *Directory) ListAll() []Account {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.collect(func(*Account) bool { return true })
}

// ListActive returns the active accounts in insertion order.
func (d *Directory) ListActive() []Account {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.collect(func(a *Account) bool { return a.Active })
}

// ListMatching returns accounts whose username matches a glob pattern such as
// "john_*" or "?ob*", in insertion order.
func (d *Directory) ListMatching(pattern string) ([]Account, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, validationError(FieldPattern, "invalid pattern %q: %v", pattern, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.collect(func(a *Account) bool { return g.Match(a.Username) }), nil
}

// Update applies a patch to an account. It returns false if the id is unknown.
//
// Fields are processed in the order username, email, secret. Each field is
// validated and then applied before the next is looked at, so an error on a
// later field leaves earlier fields of the same patch in place.
func (d *Directory) Update(id int64, patch Patch) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.accounts[id]
	if !ok {
		return false, nil
	}
	if patch.IsEmpty() {
		return true, nil
	}

	var changed []Field
	defer func() {
		if len(changed) > 0 {
			d.record(EventUpdated, a, changed)
		}
	}()

	if patch.Username != nil {
		username := *patch.Username
		if err := ValidateUsername(username); err != nil {
			return false, err
		}
		if other := d.findByUsername(username); other != nil && other.ID != id {
			return false, conflictError(FieldUsername)
		}
		a.Username = username
		changed = append(changed, FieldUsername)
	}

	if patch.Email != nil {
		email := *patch.Email
		if err := ValidateEmail(email); err != nil {
			return false, err
		}
		if other := d.findByEmail(email); other != nil && other.ID != id {
			return false, conflictError(FieldEmail)
		}
		a.Email = email
		changed = append(changed, FieldEmail)
	}

	if patch.Secret != nil {
		if err := ValidateSecret(*patch.Secret); err != nil {
			return false, err
		}
		a.Secret = *patch.Secret
		changed = append(changed, FieldSecret)
	}

	d.logger.Debug("account updated", "account_id", id)
	return true, nil
}

// Delete removes an account. Its id is never reissued.
func (d *Directory) Delete(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.accounts[id]
	if !ok {
		return false
	}
	delete(d.accounts, id)
	for i, oid := range d.order {
		if oid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}

	d.logger.Debug("account deleted", "account_id", id)
	d.record(EventDeleted, a, nil)
	d.statsChanged()
	return true
}

// Deactivate marks an account inactive.
func (d *Directory) Deactivate(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.accounts[id]
	if !ok {
		return false
	}
	a.Active = false

	d.record(EventDeactivated, a, nil)
	d.statsChanged()
	return true
}

// Activate marks an account active and clears its failure counter.
func (d *Directory) Activate(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.accounts[id]
	if !ok {
		return false
	}
	a.Active = true
	a.FailedAttempts = 0

	d.record(EventActivated, a, nil)
	d.statsChanged()
	return true
}

// Authenticate checks a username and secret.
//
// An unknown username and a wrong secret both return ok == false with a nil
// error. Deactivated and locked accounts return errors (see IsDeactivated and
// IsLocked) even when the secret is correct. The MaxAttempts-th consecutive
// failure deactivates the account.
func (d *Directory) Authenticate(username, secret string) (Account, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a := d.findByUsername(username)
	if a == nil {
		d.observer.AuthAttempt(AuthUnknown)
		return Account{}, false, nil
	}

	if !a.Active {
		d.observer.AuthAttempt(AuthDeactivated)
		return Account{}, false, deactivatedError(username)
	}

	// Lockout is tied to the counter, not to Active.
	if a.IsLocked() {
		d.observer.AuthAttempt(AuthLocked)
		return Account{}, false, lockedError(username, a.FailedAttempts)
	}

	if a.Secret == secret {
		a.recordSuccess(d.now())
		d.observer.AuthAttempt(AuthSuccess)
		d.record(EventLoginSucceeded, a, nil)
		return a.clone(), true, nil
	}

	locked := a.recordFailure()
	d.observer.AuthAttempt(AuthMismatch)
	d.record(EventLoginFailed, a, nil)
	if locked {
		d.logger.Warn("account locked after failed attempts",
			"account_id", a.ID,
			"username", a.Username,
			"failed_attempts", a.FailedAttempts,
		)
		d.observer.AccountLocked()
		d.record(EventLocked, a, nil)
		d.statsChanged()
	}
	return Account{}, false, nil
}

// ResetSecret replaces the secret of the account with the given email,
// clears its failure counter and reactivates it. It returns false if no
// account has that email.
func (d *Directory) ResetSecret(email, newSecret string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a := d.findByEmail(email)
	if a == nil {
		return false, nil
	}
	if err := ValidateSecret(newSecret); err != nil {
		return false, err
	}

	a.Secret = newSecret
	a.FailedAttempts = 0
	a.Active = true

	d.record(EventSecretReset, a, nil)
	d.statsChanged()
	return true, nil
}

// Stats counts accounts by state.
func (d *Directory) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.stats()
}

func (d *Directory) stats() Stats {
	s := Stats{Total: len(d.accounts)}
	for _, a := range d.accounts {
		if a.Active {
			s.Active++
		}
	}
	s.Inactive = s.Total - s.Active
	s.CreationRate = s.Total
	return s
}

func (d *Directory) findByUsername(username string) *Account {
	for _, id := range d.order {
		if a := d.accounts[id]; a.Username == username {
			return a
		}
	}
	return nil
}

func (d *Directory) findByEmail(email string) *Account {
	for _, id := range d.order {
		if a := d.accounts[id]; a.Email == email {
			return a
		}
	}
	return nil
}

func (d *Directory) collect(keep func(*Account) bool) []Account {
	out := make([]Account, 0, len(d.order))
	for _, id := range d.order {
		if a := d.accounts[id]; keep(a) {
			out = append(out, a.clone())
		}
	}
	return out
}

func (d *Directory) record(kind EventKind, a *Account, fields []Field) {
	if d.audit == nil {
		return
	}
	d.audit.Record(Event{
		ID:        ulid.Make(),
		Kind:      kind,
		AccountID: a.ID,
		Username:  a.Username,
		At:        d.now(),
		Fields:    fields,
	})
}

func (d *Directory) statsChanged() {
	d.observer.AccountsChanged(d.stats())
}
