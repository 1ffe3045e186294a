// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/codeassist/userdir/internal/directory"
	"github.com/codeassist/userdir/internal/seed"
)

// NewSeedCmd creates the seed command group.
func NewSeedCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Work with seed files",
	}
	cmd.AddCommand(newSeedValidateCmd(opts))
	return cmd
}

func newSeedValidateCmd(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a seed file without starting the directory",
		Long: `Checks a seed file against the seed schema and applies it to a scratch
directory to find entries that would be rejected. Exits non-zero if any are.

Useful in CI pipelines to catch seed errors early:
  userdir seed validate seeds/accounts.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeedValidate(cmd, args[0])
		},
	}
}

func runSeedValidate(cmd *cobra.Command, path string) error {
	f, err := seed.ParseFile(path)
	if err != nil {
		cmd.PrintErrf("%s: %s\n", path, seed.FormatSchemaError(err))
		return err
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	report := seed.Apply(directory.New(directory.WithLogger(quiet)), f, quiet)

	for _, failure := range report.Failed {
		cmd.PrintErrf("  entry %d (%s): %v\n", failure.Index, failure.Username, failure.Err)
	}
	if len(report.Failed) > 0 {
		return oops.Code("SEED_INVALID").
			With("path", path).
			With("rejected", len(report.Failed)).
			Errorf("validation failed: %d of %d seed entries rejected", len(report.Failed), len(f.Accounts))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d accounts valid (%d inactive)\n", path, report.Created, report.Deactivated)
	return nil
}
