// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

//go:build integration

package directory_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/codeassist/userdir/internal/directory"
	"github.com/codeassist/userdir/internal/observability"
	"github.com/codeassist/userdir/internal/seed"
)

const seedFile = `version: 1.0.0
accounts:
  - username: john_doe
    email: john@example.com
    secret: Password123
  - username: jane_smith
    email: jane@example.com
    secret: SecurePass456
    active: false
  - username: bob_wilson
    email: bob@example.com
    secret: StrongPwd789
`

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func seeded(opts ...directory.Option) *directory.Directory {
	dir := directory.New(append([]directory.Option{directory.WithLogger(quiet)}, opts...)...)
	f, err := seed.Parse([]byte(seedFile))
	Expect(err).NotTo(HaveOccurred())
	report := seed.Apply(dir, f, quiet)
	Expect(report.Failed).To(BeEmpty())
	return dir
}

var _ = Describe("Directory", func() {
	var (
		dir    *directory.Directory
		mu     sync.Mutex
		events []directory.Event
	)

	BeforeEach(func() {
		events = nil
		dir = seeded(directory.WithAuditSink(directory.AuditSinkFunc(func(e directory.Event) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		})))
	})

	Describe("login lockout", func() {
		It("deactivates the account after three consecutive failures", func() {
			for i := 0; i < directory.MaxAttempts; i++ {
				_, ok, err := dir.Authenticate("john_doe", "WrongPass1")
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())
			}

			a, found := dir.GetByUsername("john_doe")
			Expect(found).To(BeTrue())
			Expect(a.Active).To(BeFalse())
			Expect(a.FailedAttempts).To(Equal(directory.MaxAttempts))

			_, _, err := dir.Authenticate("john_doe", "Password123")
			Expect(directory.IsDeactivated(err)).To(BeTrue())
		})

		It("restores login after reactivation", func() {
			for i := 0; i < directory.MaxAttempts; i++ {
				_, _, _ = dir.Authenticate("john_doe", "WrongPass1")
			}
			a, _ := dir.GetByUsername("john_doe")
			Expect(dir.Activate(a.ID)).To(BeTrue())

			got, ok, err := dir.Authenticate("john_doe", "Password123")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(got.FailedAttempts).To(BeZero())
			Expect(got.LastLoginAt).NotTo(BeNil())
		})

		It("never exceeds the threshold under concurrent failures", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, ok, _ := dir.Authenticate("bob_wilson", "WrongPass1")
					Expect(ok).To(BeFalse())
				}()
			}
			wg.Wait()

			a, _ := dir.GetByUsername("bob_wilson")
			Expect(a.Active).To(BeFalse())
			Expect(a.FailedAttempts).To(Equal(directory.MaxAttempts))

			mu.Lock()
			defer mu.Unlock()
			locked := 0
			for _, e := range events {
				if e.Kind == directory.EventLocked {
					locked++
				}
			}
			Expect(locked).To(Equal(1))
		})
	})

	Describe("uniqueness", func() {
		It("admits exactly one of many concurrent creates for the same username", func() {
			var (
				wg      sync.WaitGroup
				created sync.Map
			)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					a, err := dir.Create("racer", fmt.Sprintf("racer%d@example.com", i), "Password123")
					if err == nil {
						created.Store(a.ID, true)
					}
				}(i)
			}
			wg.Wait()

			n := 0
			created.Range(func(_, _ any) bool { n++; return true })
			Expect(n).To(Equal(1))
			Expect(dir.Stats().Total).To(Equal(4))
		})
	})

	Describe("secret reset", func() {
		It("lets the new secret authenticate and rejects the old one", func() {
			ok, err := dir.ResetSecret("bob@example.com", "BrandNew999")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			_, ok, err = dir.Authenticate("bob_wilson", "StrongPwd789")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			_, ok, err = dir.Authenticate("bob_wilson", "BrandNew999")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})
})

var _ = Describe("Directory metrics", func() {
	var server *observability.Server

	BeforeEach(func() {
		server = observability.NewServer("127.0.0.1:0", "integration", func() bool { return true })
		_, err := server.Start()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(server.Stop(ctx)).To(Succeed())
	})

	It("exports account state and lockouts over HTTP", func() {
		dir := seeded(directory.WithObserver(directory.NewMetrics(server.Registerer())))

		for i := 0; i < directory.MaxAttempts; i++ {
			_, _, _ = dir.Authenticate("john_doe", "WrongPass1")
		}

		resp, err := http.Get("http://" + server.Addr() + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())

		Expect(string(body)).To(ContainSubstring(`userdir_accounts{state="active"} 1`))
		Expect(string(body)).To(ContainSubstring(`userdir_accounts{state="inactive"} 2`))
		Expect(string(body)).To(ContainSubstring("userdir_lockouts_total 1"))
		Expect(string(body)).To(ContainSubstring(`userdir_auth_attempts_total{result="mismatch"} 3`))
		Expect(string(body)).To(ContainSubstring("userdir_accounts_created_total 3"))
	})
})
