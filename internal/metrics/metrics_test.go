package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNoOpSatisfiesCollectorWithoutPanicking(t *testing.T) {
	c := NoOp()
	require.NotPanics(t, func() {
		c.IncSearchesStarted()
		c.ObserveNodesPerSecond(123.4)
		c.SetCacheHitRatio(0.5)
		c.IncCollisions()
		c.ObserveBatchSize(32)
		c.SetActiveSearches(2)
	})
}

func TestPrometheusCollectorRegistersAndRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheus(reg)

	c.IncSearchesStarted()
	c.SetCacheHitRatio(0.75)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
