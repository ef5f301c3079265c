// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package metrics exports shard store and query session activity as
// Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/index"
	"github.com/poiesic/symfind/search"
)

const namespace = "symfind"

// Collector implements index.Monitor and search.Monitor.
type Collector struct {
	shardLoads     *prometheus.CounterVec
	shardLatency   prometheus.Histogram
	shardEntries   prometheus.Counter
	malformed      prometheus.Counter
	sessions       *prometheus.CounterVec
	sessionLatency prometheus.Histogram
	sessionHits    prometheus.Histogram
}

var (
	_ index.Monitor  = (*Collector)(nil)
	_ search.Monitor = (*Collector)(nil)
)

// NewCollector creates the metrics. Call Register to expose them.
func NewCollector() *Collector {
	return &Collector{
		shardLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shard_loads_total",
			Help:      "Shard loads by outcome",
		}, []string{"status"}),
		shardLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "shard_load_seconds",
			Help:      "Latency of successful shard loads",
			Buckets:   prometheus.DefBuckets,
		}),
		shardEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shard_entries_loaded_total",
			Help:      "Entries decoded from loaded shards",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_entries_total",
			Help:      "Shard records skipped as malformed",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_sessions_total",
			Help:      "Query session transitions",
		}, []string{"state"}),
		sessionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_session_seconds",
			Help:      "Time from the end of the debounce to delivery",
			Buckets:   prometheus.DefBuckets,
		}),
		sessionHits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_session_hits",
			Help:      "Hits shown per delivered session",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),
	}
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.shardLoads,
		c.shardLatency,
		c.shardEntries,
		c.malformed,
		c.sessions,
		c.sessionLatency,
		c.sessionHits,
	}
}

// Register adds every metric to reg. Registering the same Collector twice
// is not an error.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, m := range c.collectors() {
		if err := reg.Register(m); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func (c *Collector) ShardLoaded(_ core.ShardKey, entries int, elapsed time.Duration) {
	c.shardLoads.WithLabelValues("success").Inc()
	c.shardLatency.Observe(elapsed.Seconds())
	c.shardEntries.Add(float64(entries))
}

func (c *Collector) ShardLoadFailed(_ core.ShardKey, _ error) {
	c.shardLoads.WithLabelValues("error").Inc()
}

func (c *Collector) MalformedEntry(_ core.ShardKey, _ error) {
	c.malformed.Inc()
}

func (c *Collector) SessionStarted(_ uint64, _ string) {
	c.sessions.WithLabelValues("started").Inc()
}

func (c *Collector) SessionSuperseded(_ uint64) {
	c.sessions.WithLabelValues("superseded").Inc()
}

func (c *Collector) SessionDelivered(_ uint64, hits int, elapsed time.Duration) {
	c.sessions.WithLabelValues("delivered").Inc()
	c.sessionLatency.Observe(elapsed.Seconds())
	c.sessionHits.Observe(float64(hits))
}
