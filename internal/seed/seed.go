// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

// Package seed loads accounts from YAML seed files into a directory.
package seed

import (
	"context"
	"log/slog"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/codeassist/userdir/internal/directory"
	"github.com/codeassist/userdir/pkg/errutil"
)

// SupportedVersions is the semver constraint seed files must satisfy.
const SupportedVersions = "^1"

// File is a seed document.
type File struct {
	Version  string  `yaml:"version" json:"version" jsonschema:"description=Seed format version (semver)"`
	Accounts []Entry `yaml:"accounts" json:"accounts" jsonschema:"description=Accounts created in order"`
}

// Entry is one account in a seed file. The schema checks only shape; account
// rules are enforced by the directory when the entry is applied.
type Entry struct {
	Username string `yaml:"username" json:"username"`
	Email    string `yaml:"email" json:"email"`
	Secret   string `yaml:"secret" json:"secret"`
	// Active defaults to true.
	Active *bool `yaml:"active,omitempty" json:"active,omitempty"`
}

// IsActive reports whether the entry should end up active.
func (e Entry) IsActive() bool {
	return e.Active == nil || *e.Active
}

// Parse validates data against the seed schema and decodes it.
func Parse(data []byte) (*File, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, oops.Code("SEED_INVALID").Wrap(err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code("SEED_INVALID").With("operation", "decode").Wrap(err)
	}

	if err := checkVersion(f.Version); err != nil {
		return nil, err
	}
	return &f, nil
}

// ParseFile reads and parses the seed file at path.
func ParseFile(path string) (*File, error) {
	//nolint:gosec // G304: path is operator-supplied configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return f, nil
}

func checkVersion(version string) error {
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return oops.Code("SEED_VERSION_INVALID").
			With("version", version).
			Errorf("version %q is not a valid semantic version", version)
	}
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return oops.Code("SEED_VERSION_INVALID").Wrap(err)
	}
	if !constraint.Check(v) {
		return oops.Code("SEED_VERSION_UNSUPPORTED").
			With("version", version).
			With("supported", SupportedVersions).
			Errorf("seed version %s is not supported", version)
	}
	return nil
}

// EntryError is a seed entry the directory rejected.
type EntryError struct {
	Index    int
	Username string
	Err      error
}

// Report summarizes Apply.
type Report struct {
	Created     int
	Deactivated int
	Failed      []EntryError
}

// Apply creates the file's accounts in order. Entries the directory rejects
// are recorded in the report and skipped; they do not stop later entries.
func Apply(dir *directory.Directory, f *File, logger *slog.Logger) Report {
	if logger == nil {
		logger = slog.Default()
	}

	var report Report
	for i, e := range f.Accounts {
		a, err := dir.Create(e.Username, e.Email, e.Secret)
		if err != nil {
			errutil.Log(context.Background(), logger, slog.LevelWarn, "seed entry rejected", err)
			report.Failed = append(report.Failed, EntryError{Index: i, Username: e.Username, Err: err})
			continue
		}
		report.Created++

		if !e.IsActive() && dir.Deactivate(a.ID) {
			report.Deactivated++
		}
	}

	logger.Info("seed applied",
		"created", report.Created,
		"deactivated", report.Deactivated,
		"failed", len(report.Failed),
	)
	return report
}
