// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/codeassist/userdir/internal/config"
	"github.com/codeassist/userdir/internal/directory"
	"github.com/codeassist/userdir/internal/logging"
	"github.com/codeassist/userdir/internal/observability"
	"github.com/codeassist/userdir/internal/seed"
	"github.com/codeassist/userdir/pkg/errutil"
)

// Observability server start retry policy.
const (
	startRetryBase = 100 * time.Millisecond
	startRetries   = 4
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the directory with metrics and health endpoints",
		Long: `Builds a directory, applies the configured seed file, and serves
Prometheus metrics and health probes until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	logger := logging.SetDefault(loggerOptions(cmd, cfg))

	logger.Info("starting userdir",
		"log_format", cfg.Log.Format,
		"metrics_addr", cfg.Metrics.Addr,
		"seed_file", cfg.Seed.File,
	)

	var (
		ready    atomic.Bool
		obs      *observability.Server
		observer directory.Observer
	)
	if cfg.Metrics.Addr != "" {
		obs = observability.NewServer(cfg.Metrics.Addr, version, ready.Load)
		observer = directory.NewMetrics(obs.Registerer())
	}

	dir := directory.New(
		directory.WithLogger(logger),
		directory.WithObserver(observer),
		directory.WithAuditSink(directory.NewLogSink(logger.With("component", "audit"))),
	)

	if cfg.Seed.File != "" {
		f, err := seed.ParseFile(cfg.Seed.File)
		if err != nil {
			errutil.LogError(logger, "failed to load seed file", err)
			return err
		}
		seed.Apply(dir, f, logger)
	}

	var errCh <-chan error
	if obs != nil {
		var err error
		errCh, err = startObservability(ctx, obs)
		if err != nil {
			errutil.LogError(logger, "failed to start observability server", err)
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Shutdown.Timeout)
			defer cancel()
			if stopErr := obs.Stop(shutdownCtx); stopErr != nil {
				errutil.LogError(logger, "failed to stop observability server", stopErr)
			}
		}()
	}

	ready.Store(true)
	stats := dir.Stats()
	logger.Info("directory ready", "total", stats.Total, "active", stats.Active, "inactive", stats.Inactive)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err, ok := <-errCh:
		if ok && err != nil {
			return oops.Code("OBSERVABILITY_FAILED").Wrap(err)
		}
	}
	ready.Store(false)
	return nil
}

// startObservability starts obs, retrying while the address is still held
// by a previous process.
func startObservability(ctx context.Context, obs *observability.Server) (<-chan error, error) {
	var errCh <-chan error
	backoff := retry.WithMaxRetries(startRetries, retry.NewExponential(startRetryBase))
	err := retry.Do(ctx, backoff, func(_ context.Context) error {
		ch, err := obs.Start()
		if err != nil {
			return retry.RetryableError(err)
		}
		errCh = ch
		return nil
	})
	if err != nil {
		return nil, oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
	}
	return errCh, nil
}
