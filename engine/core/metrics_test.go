package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsDispatchCounting(t *testing.T) {
	if metricsState != nil {
		t.Skip("metrics already initialized by another test")
	}

	// Before initialization both sides are no-ops, never a panic.
	assert.Zero(t, MetricsDispatches())
	MetricsDispatchSubmitted()
	assert.Zero(t, MetricsDispatches())

	require.NoError(t, MetricsInitialize())
	MetricsDispatchSubmitted()
	MetricsDispatchSubmitted()
	assert.Equal(t, uint64(2), MetricsDispatches())
}
