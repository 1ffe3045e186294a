// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/codeassist/userdir/internal/directory"
)

// NewDemoCmd creates the demo subcommand.
func NewDemoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through creating, authenticating and updating accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			dir := directory.New(directory.WithLogger(logger))
			return runDemo(cmd.OutOrStdout(), dir)
		},
	}
}

func runDemo(w io.Writer, dir *directory.Directory) error {
	var created []directory.Account
	for _, in := range [][3]string{
		{"john_doe", "john@example.com", "Password123"},
		{"jane_smith", "jane@example.com", "SecurePass456"},
		{"bob_wilson", "bob@example.com", "StrongPwd789"},
	} {
		a, err := dir.Create(in[0], in[1], in[2])
		if err != nil {
			return err
		}
		created = append(created, a)
	}
	fmt.Fprintf(w, "Created users: %s, %s, %s\n", created[0], created[1], created[2])

	a, ok, err := dir.Authenticate("john_doe", "Password123")
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(w, "Authentication successful: %s\n", a)
	}

	if _, err := dir.Update(created[0].ID, directory.Patch{Email: ptr("john.doe@newdomain.com")}); err != nil {
		return err
	}
	updated, _ := dir.GetByID(created[0].ID)
	fmt.Fprintf(w, "Updated user: %s\n", updated)

	stats := dir.Stats()
	fmt.Fprintf(w, "User statistics: total=%d active=%d inactive=%d\n", stats.Total, stats.Active, stats.Inactive)

	if _, err := dir.Create("ab", "invalid-email", "weak"); err != nil {
		fmt.Fprintf(w, "Validation error (expected): %s: %v\n", directory.FieldOf(err), err)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
