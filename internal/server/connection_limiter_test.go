package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionLimits_GlobalCap(t *testing.T) {
	limits := NewConnectionLimits(2, 10, 1000, 1000)

	for i := range 2 {
		ok, _ := limits.Acquire(fmt.Sprintf("10.0.0.%d", i))
		require.True(t, ok)
	}

	ok, scope := limits.Acquire("10.0.0.99")
	assert.False(t, ok)
	assert.Equal(t, ScopeGlobal, scope)
	assert.Equal(t, int64(2), limits.Current())
}

func TestConnectionLimits_PerIPCap(t *testing.T) {
	limits := NewConnectionLimits(100, 2, 1000, 1000)

	for range 2 {
		ok, _ := limits.Acquire("10.0.0.1")
		require.True(t, ok)
	}

	ok, scope := limits.Acquire("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, ScopePerIP, scope)

	// A per-IP rejection must not leak a global slot.
	assert.Equal(t, int64(2), limits.Current())

	// Other IPs are unaffected.
	ok, _ = limits.Acquire("10.0.0.2")
	assert.True(t, ok)
}

func TestConnectionLimits_ReleaseFreesSlot(t *testing.T) {
	limits := NewConnectionLimits(1, 1, 1000, 1000)

	ok, _ := limits.Acquire("10.0.0.1")
	require.True(t, ok)

	limits.Release("10.0.0.1")
	assert.Equal(t, int64(0), limits.Current())

	ok, _ = limits.Acquire("10.0.0.1")
	assert.True(t, ok)
}

func TestConnectionLimits_AttemptRate(t *testing.T) {
	// Tiny refill rate so the burst is all we get within the test.
	limits := NewConnectionLimits(100, 100, 0.001, 3)

	for range 3 {
		ok, _ := limits.Acquire("10.0.0.1")
		require.True(t, ok)
	}

	ok, scope := limits.Acquire("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, ScopeRate, scope)

	// The bucket is per IP.
	ok, _ = limits.Acquire("10.0.0.2")
	assert.True(t, ok)
}
