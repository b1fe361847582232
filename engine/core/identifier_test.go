package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierAcquireRelease(t *testing.T) {
	id := IdentifierAcquireNewID("owner-a")
	require.NoError(t, IdentifierReleaseID(id))

	// A released slot is handed out again.
	assert.Equal(t, id, IdentifierAcquireNewID("owner-b"))
	require.NoError(t, IdentifierReleaseID(id))
}

func TestIdentifierReleaseOutOfRange(t *testing.T) {
	id := IdentifierAcquireNewID("owner")
	defer IdentifierReleaseID(id)

	// One past the last slot must error, not panic.
	assert.Error(t, IdentifierReleaseID(uint32(len(owners))))
	assert.Error(t, IdentifierReleaseID(uint32(len(owners))+10))
}
