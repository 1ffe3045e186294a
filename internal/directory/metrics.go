// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package directory

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports directory activity to Prometheus. It implements Observer.
type Metrics struct {
	Accounts        *prometheus.GaugeVec
	AccountsCreated prometheus.Counter
	AuthAttempts    *prometheus.CounterVec
	Lockouts        prometheus.Counter
}

// NewMetrics creates directory metrics and registers them with reg.
// Panics if registration fails (following prometheus convention).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Accounts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "userdir_accounts",
				Help: "Current number of accounts by state",
			},
			[]string{"state"},
		),
		AccountsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "userdir_accounts_created_total",
				Help: "Total number of accounts created",
			},
		),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userdir_auth_attempts_total",
				Help: "Total number of authentication attempts by result",
			},
			[]string{"result"},
		),
		Lockouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "userdir_lockouts_total",
				Help: "Total number of accounts locked by repeated failures",
			},
		),
	}

	reg.MustRegister(m.Accounts)
	reg.MustRegister(m.AccountsCreated)
	reg.MustRegister(m.AuthAttempts)
	reg.MustRegister(m.Lockouts)

	return m
}

// AccountCreated implements Observer.
func (m *Metrics) AccountCreated() {
	m.AccountsCreated.Inc()
}

// AuthAttempt implements Observer.
func (m *Metrics) AuthAttempt(result AuthResult) {
	m.AuthAttempts.WithLabelValues(string(result)).Inc()
}

// AccountLocked implements Observer.
func (m *Metrics) AccountLocked() {
	m.Lockouts.Inc()
}

// AccountsChanged implements Observer.
func (m *Metrics) AccountsChanged(stats Stats) {
	m.Accounts.WithLabelValues("active").Set(float64(stats.Active))
	m.Accounts.WithLabelValues("inactive").Set(float64(stats.Inactive))
}
