// Package stats - Collector implementation
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records query outcomes. It maintains a Snapshot for status
// output and a private Prometheus registry with the same figures:
//
//	pkresolve_queries_total{op}
//	pkresolve_query_errors_total{op,code}
//	pkresolve_item_errors_total{code}
//	pkresolve_packages_emitted_total{info}
//	pkresolve_query_duration_seconds{op}
//
// Thread-safe for concurrent queries served by the HTTP API.
type Collector struct {
	mu        sync.RWMutex
	snap      Snapshot
	consumers []Consumer

	registry   *prometheus.Registry
	queries    *prometheus.CounterVec
	queryErrs  *prometheus.CounterVec
	itemErrs   *prometheus.CounterVec
	emitted    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	lastUpdate prometheus.Gauge

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		snap: Snapshot{
			ByOp:      make(map[string]int),
			ByInfo:    make(map[string]int),
			StartTime: time.Now(),
		},
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pkresolve_queries_total",
				Help: "Number of query operations by operation.",
			},
			[]string{"op"},
		),
		queryErrs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pkresolve_query_errors_total",
				Help: "Number of failed query operations by operation and error code.",
			},
			[]string{"op", "code"},
		),
		itemErrs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pkresolve_item_errors_total",
				Help: "Number of per-item errors by error code.",
			},
			[]string{"code"},
		),
		emitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pkresolve_packages_emitted_total",
				Help: "Number of packages emitted by info tag.",
			},
			[]string{"info"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pkresolve_query_duration_seconds",
				Help:    "Time taken to answer a query.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		lastUpdate: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pkresolve_stats_last_update_timestamp_seconds",
				Help: "Unix time of the last stats flush.",
			},
		),
	}

	c.registry.MustRegister(
		c.queries,
		c.queryErrs,
		c.itemErrs,
		c.emitted,
		c.duration,
		c.lastUpdate,
	)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordQuery records a finished query. code is the backend error code of
// err and is ignored when err is nil.
func (c *Collector) RecordQuery(op string, took time.Duration, err error, code string) {
	c.queries.WithLabelValues(op).Inc()
	c.duration.WithLabelValues(op).Observe(took.Seconds())
	if err != nil {
		c.queryErrs.WithLabelValues(op, code).Inc()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Queries++
	c.snap.ByOp[op]++
	c.snap.Busy += took
	if err != nil {
		c.snap.Failed++
	}
}

// RecordEmitted records one package emitted with the given info tag.
func (c *Collector) RecordEmitted(info string) {
	c.emitted.WithLabelValues(info).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Emitted++
	c.snap.ByInfo[info]++
}

// RecordItemError records a per-item error reported to a sink.
func (c *Collector) RecordItemError(code string) {
	c.itemErrs.WithLabelValues(code).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.ItemErrors++
}

// GetSnapshot returns a thread-safe copy of the current statistics.
func (c *Collector) GetSnapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.snap.clone()
	s.Elapsed = time.Since(s.StartTime)
	return s
}

// AddConsumer registers a consumer notified on every flush.
// Consumers are notified in registration order.
func (c *Collector) AddConsumer(consumer Consumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumers = append(c.consumers, consumer)
}

// Flush hands the current snapshot to every consumer.
func (c *Collector) Flush() {
	c.lastUpdate.SetToCurrentTime()

	snapshot := c.GetSnapshot()
	c.mu.RLock()
	consumers := c.consumers
	c.mu.RUnlock()

	// Notify consumers outside the lock
	for _, consumer := range consumers {
		consumer.OnStatsUpdate(snapshot)
	}
}

// Start runs a flush loop every interval until ctx is cancelled or Close is
// called. Long-running servers use it to keep the textfile export fresh.
func (c *Collector) Start(ctx context.Context, interval time.Duration) {
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	ticker := time.NewTicker(interval)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Flush()
			case <-loopCtx.Done():
				return
			}
		}
	}()
}

// Close stops the flush loop, waits for it and runs a final flush.
func (c *Collector) Close() error {
	if c.cancel != nil {
		c.cancel()
		c.wg.Wait()
		c.cancel = nil
	}
	c.Flush()
	return nil
}
