package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ShardMetrics(t *testing.T) {
	c := NewCollector()

	c.ShardLoaded("a", 120, 15*time.Millisecond)
	c.ShardLoaded("c", 30, 5*time.Millisecond)
	c.ShardLoadFailed("t", errors.New("timeout"))
	c.MalformedEntry("a", errors.New("bad record"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.shardLoads.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.shardLoads.WithLabelValues("error")))
	assert.Equal(t, 150.0, testutil.ToFloat64(c.shardEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.malformed))
	assert.Equal(t, 1, testutil.CollectAndCount(c.shardLatency))
}

func TestCollector_SessionMetrics(t *testing.T) {
	c := NewCollector()

	c.SessionStarted(1, "a")
	c.SessionStarted(2, "ac")
	c.SessionSuperseded(1)
	c.SessionDelivered(2, 7, 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.sessions.WithLabelValues("started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessions.WithLabelValues("superseded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessions.WithLabelValues("delivered")))
}

func TestCollector_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector()
	require.NoError(t, c.Register(reg))

	// Registering the same collector twice is harmless.
	require.NoError(t, c.Register(reg))

	c.ShardLoadFailed("a", errors.New("boom"))
	count, err := testutil.GatherAndCount(reg, "symfind_shard_loads_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
