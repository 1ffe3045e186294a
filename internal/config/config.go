// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

// Package config loads userdir configuration from defaults, an optional YAML
// file and command-line flags, in increasing order of precedence.
package config

import (
	"log/slog"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/codeassist/userdir/internal/logging"
)

// Default values.
const (
	DefaultLogFormat       = logging.FormatJSON
	DefaultLogLevel        = "info"
	DefaultMetricsAddr     = "127.0.0.1:9100"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the resolved configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Seed     SeedConfig     `koanf:"seed"`
	Shutdown ShutdownConfig `koanf:"shutdown"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsConfig configures the observability server. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// SeedConfig names a seed file applied at startup.
type SeedConfig struct {
	File string `koanf:"file"`
}

// ShutdownConfig bounds graceful shutdown.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Log:      LogConfig{Format: DefaultLogFormat, Level: DefaultLogLevel},
		Metrics:  MetricsConfig{Addr: DefaultMetricsAddr},
		Shutdown: ShutdownConfig{Timeout: DefaultShutdownTimeout},
	}
}

// RegisterFlags adds the flags Load understands. Flag names are the koanf
// keys with dots replaced by dashes, e.g. --log-format for log.format.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	fs.String("seed-file", d.Seed.File, "YAML seed file applied at startup")
	fs.Duration("shutdown-timeout", d.Shutdown.Timeout, "graceful shutdown timeout")
}

// flagKeys maps flag names to koanf keys.
var flagKeys = map[string]string{
	"log-format":       "log.format",
	"log-level":        "log.level",
	"metrics-addr":     "metrics.addr",
	"seed-file":        "seed.file",
	"shutdown-timeout": "shutdown.timeout",
}

// Load resolves configuration. path may be empty. fs may be nil; when set,
// only flags the user changed override the file.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	d := Defaults()
	defaults := map[string]any{
		"log.format":       d.Log.Format,
		"log.level":        d.Log.Level,
		"metrics.addr":     d.Metrics.Addr,
		"seed.file":        d.Seed.File,
		"shutdown.timeout": d.Shutdown.Timeout,
	}
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "file").
				With("path", path).
				Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SlogLevel returns the parsed log level. Call after Validate.
func (c *Config) SlogLevel() slog.Level {
	level, _ := logging.ParseLevel(c.Log.Level) //nolint:errcheck // validated by Validate
	return level
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !logging.ValidFormat(c.Log.Format) {
		return oops.Code("CONFIG_INVALID").
			With("key", "log.format").
			Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.Code("CONFIG_INVALID").
			With("key", "log.level").
			Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}
	if c.Shutdown.Timeout <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "shutdown.timeout").
			Errorf("shutdown.timeout must be positive, got %s", c.Shutdown.Timeout)
	}
	return nil
}
