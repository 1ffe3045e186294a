// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/codeassist/userdir/internal/directory"
	"github.com/codeassist/userdir/internal/seed"
)

type listOptions struct {
	match      string
	activeOnly bool
}

// NewListCmd creates the list subcommand.
func NewListCmd(root *rootOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the accounts a seed file produces",
		Long: `Loads the configured seed file (--seed-file or seed.file) into a fresh
directory and prints its accounts. Secrets are never printed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Seed.File == "" {
				return oops.Code("CONFIG_INVALID").Errorf("a seed file is required (--seed-file)")
			}
			f, err := seed.ParseFile(cfg.Seed.File)
			if err != nil {
				return err
			}

			quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
			dir := directory.New(directory.WithLogger(quiet))
			seed.Apply(dir, f, newLogger(cmd, cfg))

			return runList(cmd.OutOrStdout(), dir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.match, "match", "", "only usernames matching this glob (e.g. 'j*')")
	cmd.Flags().BoolVar(&opts.activeOnly, "active", false, "only active accounts")

	return cmd
}

func runList(w io.Writer, dir *directory.Directory, opts *listOptions) error {
	var accounts []directory.Account
	switch {
	case opts.match != "":
		matched, err := dir.ListMatching(opts.match)
		if err != nil {
			return err
		}
		accounts = matched
	case opts.activeOnly:
		accounts = dir.ListActive()
	default:
		accounts = dir.ListAll()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tACTIVE\tFAILED\tCREATED")
	for _, a := range accounts {
		if opts.match != "" && opts.activeOnly && !a.Active {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%d\t%s\n",
			a.ID, a.Username, a.Email, a.Active, a.FailedAttempts, a.CreatedAt.Format(time.RFC3339))
	}
	//nolint:wrapcheck // writer errors pass through unchanged
	return tw.Flush()
}
