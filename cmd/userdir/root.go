// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codeassist/userdir/internal/config"
	"github.com/codeassist/userdir/internal/logging"
	"github.com/codeassist/userdir/internal/xdg"
)

const serviceName = "userdir"

// rootOptions holds flags shared by all subcommands.
type rootOptions struct {
	configFile string
}

// NewRootCmd creates the root command for the userdir CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "userdir",
		Short: "userdir - an in-memory user directory",
		Long: `userdir keeps an in-memory directory of user accounts with validation,
authentication and login lockout, seeded from YAML files.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewSeedCmd(opts))
	cmd.AddCommand(NewListCmd(opts))
	cmd.AddCommand(NewDemoCmd(opts))

	return cmd
}

// loadConfig resolves configuration for cmd from the config file and flags.
// Without --config, the XDG config file is used if present.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := o.configFile
	if path == "" {
		var err error
		if path, err = xdg.DefaultConfigFile(); err != nil {
			return nil, err
		}
	}
	//nolint:wrapcheck // config errors already carry codes
	return config.Load(path, cmd.Flags())
}

// loggerOptions configures a logger writing to cmd's error stream.
func loggerOptions(cmd *cobra.Command, cfg *config.Config) logging.Options {
	return logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.SlogLevel(),
		Writer:  cmd.ErrOrStderr(),
	}
}

// newLogger builds a logger writing to cmd's error stream.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.Setup(loggerOptions(cmd, cfg))
}
