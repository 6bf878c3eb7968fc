// Package stats collects query statistics for pkresolve. Every query
// operation records its outcome in a Collector, which keeps a snapshot for
// status output and exports the same numbers as Prometheus metrics.
//
// Consumers (the textfile exporter, the HTTP status endpoint) receive
// snapshots on Flush or from the periodic flush loop.
package stats

import (
	"fmt"
	"sort"
	"time"
)

// Snapshot contains the query statistics of this process.
// This is the payload shared across all stats consumers.
type Snapshot struct {
	// Totals
	Queries    int // Query operations run
	Failed     int // Queries that returned an error
	ItemErrors int // Per-item errors reported to sinks
	Emitted    int // Packages emitted across all queries

	// Breakdown
	ByOp   map[string]int // queries per operation
	ByInfo map[string]int // emitted packages per info tag

	// Timing
	StartTime time.Time     // Collector start
	Elapsed   time.Duration // Time since start
	Busy      time.Duration // Sum of query durations
}

// clone returns a deep copy so consumers never share maps with the collector.
func (s Snapshot) clone() Snapshot {
	out := s
	out.ByOp = make(map[string]int, len(s.ByOp))
	for k, v := range s.ByOp {
		out.ByOp[k] = v
	}
	out.ByInfo = make(map[string]int, len(s.ByInfo))
	for k, v := range s.ByInfo {
		out.ByInfo[k] = v
	}
	return out
}

// Ops returns the operation names seen so far, sorted.
func (s Snapshot) Ops() []string {
	ops := make([]string, 0, len(s.ByOp))
	for op := range s.ByOp {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Consumer receives snapshots from the collector.
type Consumer interface {
	OnStatsUpdate(s Snapshot)
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(s Snapshot)

// OnStatsUpdate calls f(s).
func (f ConsumerFunc) OnStatsUpdate(s Snapshot) { f(s) }

// FormatDuration formats a duration as HH:MM:SS for display
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// AverageLatency returns the mean query duration, or zero before the first
// query.
func AverageLatency(s Snapshot) time.Duration {
	if s.Queries == 0 {
		return 0
	}
	return s.Busy / time.Duration(s.Queries)
}
