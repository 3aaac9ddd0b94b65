package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailedRegistry_UnpairedMarkBeginQuarantinesOnReload(t *testing.T) {
	dir := t.TempDir()

	r, err := NewFailedRegistry(dir)
	require.NoError(t, err)
	r.MarkBegin("lua")
	require.NoError(t, r.Close())

	// Simulate the process restarting: reopen against the same state
	// file without ever having called MarkEnd for "lua".
	reopened, err := NewFailedRegistry(dir)
	require.NoError(t, err)
	defer reopened.Close()

	assert.True(t, reopened.IsQuarantined("lua"))
}

func TestFailedRegistry_MarkEndClearsQuarantineOnReload(t *testing.T) {
	dir := t.TempDir()

	r, err := NewFailedRegistry(dir)
	require.NoError(t, err)
	r.MarkBegin("python")
	r.MarkEnd("python")
	require.NoError(t, r.Close())

	reopened, err := NewFailedRegistry(dir)
	require.NoError(t, err)
	defer reopened.Close()

	assert.False(t, reopened.IsQuarantined("python"))
}

func TestFailedRegistry_ClearRemovesQuarantineImmediately(t *testing.T) {
	dir := t.TempDir()

	r, err := NewFailedRegistry(dir)
	require.NoError(t, err)
	r.MarkBegin("ruby")
	require.NoError(t, r.Close())

	// Quarantine is loaded from unfinished records when the registry is
	// reopened, as after a crash.
	reopened, err := NewFailedRegistry(dir)
	require.NoError(t, err)
	defer reopened.Close()
	require.True(t, reopened.IsQuarantined("ruby"))

	reopened.Clear("ruby")
	assert.False(t, reopened.IsQuarantined("ruby"))
}

func TestFailedRegistry_IsQuarantinedFalseForUnknownLanguage(t *testing.T) {
	dir := t.TempDir()

	r, err := NewFailedRegistry(dir)
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.IsQuarantined("nonexistent"))
}
