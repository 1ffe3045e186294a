// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package directory_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeassist/userdir/internal/directory"
)

func TestDirectory_EmptyPatchRecordsNothing(t *testing.T) {
	var buf bytes.Buffer
	var events []directory.Event
	dir := directory.New(
		directory.WithLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		directory.WithAuditSink(directory.AuditSinkFunc(func(e directory.Event) {
			events = append(events, e)
		})),
	)
	a, err := dir.Create("john_doe", "john@example.com", "Password123")
	require.NoError(t, err)
	events = nil
	buf.Reset()

	ok, err := dir.Update(a.ID, directory.Patch{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, events)
	assert.NotContains(t, buf.String(), "account updated")

	ok, err = dir.Update(a.ID+100, directory.Patch{})
	require.NoError(t, err)
	assert.False(t, ok, "unknown id is reported even for an empty patch")
}

func TestDirectory_AuditEvents(t *testing.T) {
	var events []directory.Event
	dir := directory.New(directory.WithAuditSink(directory.AuditSinkFunc(func(e directory.Event) {
		events = append(events, e)
	})))

	a, err := dir.Create("john_doe", "john@example.com", "Password123")
	require.NoError(t, err)
	_, err = dir.Update(a.ID, directory.Patch{Email: ptr("john.doe@newdomain.com")})
	require.NoError(t, err)
	_, _, err = dir.Authenticate("john_doe", "Password123")
	require.NoError(t, err)
	for range directory.MaxAttempts {
		_, _, err = dir.Authenticate("john_doe", "wrong")
		require.NoError(t, err)
	}
	_, err = dir.ResetSecret("john.doe@newdomain.com", "NewSecret99")
	require.NoError(t, err)
	require.True(t, dir.Deactivate(a.ID))
	require.True(t, dir.Activate(a.ID))
	require.True(t, dir.Delete(a.ID))

	kinds := make([]directory.EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
		assert.Equal(t, a.ID, e.AccountID)
		assert.NotEqual(t, ulid.ULID{}, e.ID)
	}
	assert.Equal(t, []directory.EventKind{
		directory.EventCreated,
		directory.EventUpdated,
		directory.EventLoginSucceeded,
		directory.EventLoginFailed,
		directory.EventLoginFailed,
		directory.EventLoginFailed,
		directory.EventLocked,
		directory.EventSecretReset,
		directory.EventDeactivated,
		directory.EventActivated,
		directory.EventDeleted,
	}, kinds)
	assert.Equal(t, []directory.Field{directory.FieldEmail}, events[1].Fields)
}

func TestDirectory_FailedUpdateRecordsAppliedFields(t *testing.T) {
	var events []directory.Event
	dir := directory.New(directory.WithAuditSink(directory.AuditSinkFunc(func(e directory.Event) {
		events = append(events, e)
	})))
	a, err := dir.Create("john_doe", "john@example.com", "Password123")
	require.NoError(t, err)
	_, err = dir.Create("jane_smith", "jane@example.com", "Password123")
	require.NoError(t, err)
	events = nil

	_, err = dir.Update(a.ID, directory.Patch{Username: ptr("johnny"), Email: ptr("jane@example.com")})
	require.Error(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, directory.EventUpdated, events[0].Kind)
	assert.Equal(t, "johnny", events[0].Username)
	assert.Equal(t, []directory.Field{directory.FieldUsername}, events[0].Fields)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	dir := directory.New(directory.WithAuditSink(directory.NewLogSink(logger)))

	a, err := dir.Create("john_doe", "john@example.com", "Password123")
	require.NoError(t, err)
	_, err = dir.Update(a.ID, directory.Patch{Secret: ptr("NewSecret99")})
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "Password123")
	assert.NotContains(t, buf.String(), "NewSecret99")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "directory event", entry["msg"])
	assert.Equal(t, string(directory.EventUpdated), entry["kind"])
	assert.Equal(t, "john_doe", entry["username"])
	assert.Equal(t, []any{"secret"}, entry["fields"])
	assert.InDelta(t, float64(a.ID), entry["account_id"], 0)
}
