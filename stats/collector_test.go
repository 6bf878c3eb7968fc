package stats

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"go-pkresolve/log"
)

func TestCollectorRecordQuery(t *testing.T) {
	c := NewCollector()

	c.RecordQuery("get-packages", 100*time.Millisecond, nil, "")
	c.RecordQuery("get-packages", 300*time.Millisecond, nil, "")
	c.RecordQuery("resolve", 50*time.Millisecond, errors.New("boom"), "internal-error")

	s := c.GetSnapshot()
	if s.Queries != 3 || s.Failed != 1 {
		t.Errorf("Queries=%d Failed=%d, want 3 and 1", s.Queries, s.Failed)
	}
	if s.ByOp["get-packages"] != 2 || s.ByOp["resolve"] != 1 {
		t.Errorf("ByOp = %v", s.ByOp)
	}
	if s.Busy != 450*time.Millisecond {
		t.Errorf("Busy = %v, want 450ms", s.Busy)
	}

	if got := testutil.ToFloat64(c.queries.WithLabelValues("get-packages")); got != 2 {
		t.Errorf("queries_total{get-packages} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.queryErrs.WithLabelValues("resolve", "internal-error")); got != 1 {
		t.Errorf("query_errors_total{resolve} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.duration); got != 2 {
		t.Errorf("duration histogram series = %d, want 2", got)
	}
}

func TestCollectorEmittedAndItemErrors(t *testing.T) {
	c := NewCollector()

	c.RecordEmitted("installed")
	c.RecordEmitted("available")
	c.RecordEmitted("available")
	c.RecordItemError("package-not-found")

	s := c.GetSnapshot()
	if s.Emitted != 3 || s.ByInfo["available"] != 2 {
		t.Errorf("Emitted=%d ByInfo=%v", s.Emitted, s.ByInfo)
	}
	if s.ItemErrors != 1 {
		t.Errorf("ItemErrors = %d, want 1", s.ItemErrors)
	}
	if got := testutil.ToFloat64(c.emitted.WithLabelValues("available")); got != 2 {
		t.Errorf("packages_emitted_total{available} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.itemErrs.WithLabelValues("package-not-found")); got != 1 {
		t.Errorf("item_errors_total = %v, want 1", got)
	}
}

func TestCollectorSnapshotIsCopy(t *testing.T) {
	c := NewCollector()
	c.RecordQuery("resolve", time.Millisecond, nil, "")

	s := c.GetSnapshot()
	s.ByOp["resolve"] = 42

	if got := c.GetSnapshot().ByOp["resolve"]; got != 1 {
		t.Errorf("collector state changed through snapshot: %d", got)
	}
}

func TestCollectorFlushNotifiesConsumers(t *testing.T) {
	c := NewCollector()

	var order []string
	c.AddConsumer(ConsumerFunc(func(s Snapshot) { order = append(order, "first") }))
	c.AddConsumer(ConsumerFunc(func(s Snapshot) {
		order = append(order, "second")
		if s.Queries != 1 {
			t.Errorf("consumer saw %d queries, want 1", s.Queries)
		}
	}))

	c.RecordQuery("resolve", time.Millisecond, nil, "")
	c.Flush()

	if strings.Join(order, ",") != "first,second" {
		t.Errorf("consumer order = %v", order)
	}
}

func TestCollectorStartAndClose(t *testing.T) {
	c := NewCollector()

	var mu sync.Mutex
	flushes := 0
	c.AddConsumer(ConsumerFunc(func(Snapshot) {
		mu.Lock()
		flushes++
		mu.Unlock()
	}))

	c.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	// At least the final flush from Close
	if flushes < 1 {
		t.Errorf("flushes = %d, want at least 1", flushes)
	}
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordQuery("search-name", time.Microsecond, nil, "")
				c.RecordEmitted("available")
			}
		}()
	}
	wg.Wait()

	s := c.GetSnapshot()
	if s.Queries != 800 || s.Emitted != 800 {
		t.Errorf("Queries=%d Emitted=%d, want 800", s.Queries, s.Emitted)
	}
}

func TestTextfileWriter(t *testing.T) {
	c := NewCollector()
	c.RecordQuery("get-updates", 20*time.Millisecond, nil, "")

	path := filepath.Join(t.TempDir(), "pkresolve.prom")
	logger := log.NewMemoryLogger()
	c.AddConsumer(NewTextfileWriter(path, c.Registry(), logger))
	c.Flush()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("textfile not written: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`pkresolve_queries_total{op="get-updates"} 1`,
		"pkresolve_query_duration_seconds_bucket",
		"pkresolve_stats_last_update_timestamp_seconds",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
	if logger.Count() != 0 {
		t.Errorf("unexpected log output: %s", logger.String())
	}
}

func TestTextfileWriterFailureIsLogged(t *testing.T) {
	c := NewCollector()
	logger := log.NewMemoryLogger()
	w := NewTextfileWriter(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"), c.Registry(), logger)

	w.OnStatsUpdate(c.GetSnapshot())

	if !logger.HasMessageWithLevel(log.LevelWarn, "Failed to write metrics textfile") {
		t.Errorf("expected warning, got: %s", logger.String())
	}
}
