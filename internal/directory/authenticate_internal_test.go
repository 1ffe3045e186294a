// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userdir Contributors

package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_LockedWhileActive(t *testing.T) {
	dir := New()
	created, err := dir.Create("john_doe", "john@example.com", "Password123")
	require.NoError(t, err)

	// No exported operation leaves an active account at the threshold, so set
	// the counter directly to exercise the pre-comparison check.
	dir.accounts[created.ID].FailedAttempts = MaxAttempts

	_, ok, err := dir.Authenticate("john_doe", "Password123")
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, IsLocked(err))
	assert.Equal(t, KindLocked, KindOf(err))

	a, _ := dir.GetByID(created.ID)
	assert.True(t, a.Active)
	assert.Equal(t, MaxAttempts, a.FailedAttempts)
}

func TestAccount_RecordFailure(t *testing.T) {
	t.Run("below threshold", func(t *testing.T) {
		a := &Account{Active: true, FailedAttempts: MaxAttempts - 2}
		assert.False(t, a.recordFailure())
		assert.True(t, a.Active)
	})

	t.Run("at threshold", func(t *testing.T) {
		a := &Account{Active: true, FailedAttempts: MaxAttempts - 1}
		assert.True(t, a.recordFailure())
		assert.False(t, a.Active)
		assert.True(t, a.IsLocked())
	})
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "conflict", KindConflict.String())
	assert.Equal(t, "deactivated", KindDeactivated.String())
	assert.Equal(t, "locked", KindLocked.String())
	assert.Equal(t, "none", KindNone.String())
	assert.Equal(t, KindNone, KindOf(nil))
}
