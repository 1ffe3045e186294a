// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

//go:build integration

package cli_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

func userdir(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "go", append([]string{"run", "."}, args...)...)
	cmd.Dir = "../../../cmd/userdir"
	return cmd
}

func writeSeed(body string) string {
	path := filepath.Join(GinkgoT().TempDir(), "accounts.yaml")
	Expect(os.WriteFile(path, []byte(body), 0o600)).To(Succeed())
	return path
}

var _ = Describe("Seed Command", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("accepts a valid seed file", func() {
		path := writeSeed("version: 1.0.0\naccounts:\n  - username: john_doe\n    email: john@example.com\n    secret: Password123\n")

		output, err := userdir(ctx, "seed", "validate", path).CombinedOutput()
		Expect(err).NotTo(HaveOccurred(), "seed validate failed: %s", string(output))
		Expect(string(output)).To(ContainSubstring("1 accounts valid"))
	})

	It("exits non-zero when an entry would be rejected", func() {
		path := writeSeed("version: 1.0.0\naccounts:\n  - username: ab\n    email: invalid-email\n    secret: weak\n")

		output, err := userdir(ctx, "seed", "validate", path).CombinedOutput()
		Expect(err).To(HaveOccurred())
		Expect(string(output)).To(ContainSubstring("entry 0 (ab)"))
	})
})

var _ = Describe("Demo Command", func() {
	It("walks through the directory lifecycle", func() {
		output, err := userdir(context.Background(), "demo", "--log-level", "error").CombinedOutput()
		Expect(err).NotTo(HaveOccurred(), "demo failed: %s", string(output))
		Expect(string(output)).To(ContainSubstring("Authentication successful"))
		Expect(string(output)).To(ContainSubstring("Validation error (expected)"))
	})
})
