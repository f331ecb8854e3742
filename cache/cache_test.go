package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dparolin/dommyhoops/query"
)

// stubQuerier counts engine invocations and returns canned rows.
type stubQuerier struct {
	mu    sync.Mutex
	calls int
	rows  []query.Record
	err   error
}

func (s *stubQuerier) Execute(ctx context.Context, statement string, params ...any) ([]query.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *stubQuerier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testRows() []query.Record {
	return []query.Record{query.NewRecord([]string{"team"}, []any{"Boise State"})}
}

func TestCacheHitSkipsEngine(t *testing.T) {
	querier := &stubQuerier{rows: testRows()}
	c := New(querier, 10)
	ctx := context.Background()

	first, err := c.GetOrCompute(ctx, "SELECT 1", nil, time.Minute)
	if err != nil {
		t.Fatalf("GetOrCompute failed: %v", err)
	}
	second, err := c.GetOrCompute(ctx, "SELECT 1", nil, time.Minute)
	if err != nil {
		t.Fatalf("GetOrCompute failed: %v", err)
	}

	if querier.callCount() != 1 {
		t.Errorf("expected 1 engine call, got %d", querier.callCount())
	}
	if len(first) != 1 || len(second) != 1 || second[0].Value("team") != "Boise State" {
		t.Errorf("unexpected rows: %v / %v", first, second)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestCacheDistinctParameters(t *testing.T) {
	querier := &stubQuerier{rows: testRows()}
	c := New(querier, 10)
	ctx := context.Background()

	if _, err := c.GetOrCompute(ctx, "SELECT ?", []any{"a"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrCompute(ctx, "SELECT ?", []any{"b"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrCompute(ctx, "SELECT ?", []any{"a", "b"}, time.Minute); err != nil {
		t.Fatal(err)
	}

	if querier.callCount() != 3 {
		t.Errorf("expected 3 engine calls for distinct fingerprints, got %d", querier.callCount())
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	querier := &stubQuerier{rows: testRows()}
	c := New(querier, 10)
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	if _, err := c.GetOrCompute(ctx, "SELECT 1", nil, time.Minute); err != nil {
		t.Fatal(err)
	}

	// Still fresh just inside the window.
	now = now.Add(59 * time.Second)
	if _, err := c.GetOrCompute(ctx, "SELECT 1", nil, time.Minute); err != nil {
		t.Fatal(err)
	}
	if querier.callCount() != 1 {
		t.Errorf("expected hit inside TTL, got %d engine calls", querier.callCount())
	}

	// Past the window: exactly one recompute, entry replaced.
	now = now.Add(2 * time.Second)
	if _, err := c.GetOrCompute(ctx, "SELECT 1", nil, time.Minute); err != nil {
		t.Fatal(err)
	}
	if querier.callCount() != 2 {
		t.Errorf("expected exactly one recompute after expiry, got %d calls", querier.callCount())
	}
	if c.Len() != 1 {
		t.Errorf("expected prior entry replaced, got %d entries", c.Len())
	}
}

func TestCacheLRUEviction(t *testing.T) {
	querier := &stubQuerier{rows: testRows()}
	c := New(querier, 2)
	ctx := context.Background()

	stmt := func(i int) string { return fmt.Sprintf("SELECT %d", i) }

	if _, err := c.GetOrCompute(ctx, stmt(1), nil, time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrCompute(ctx, stmt(2), nil, time.Minute); err != nil {
		t.Fatal(err)
	}

	// Touch 1 so 2 becomes least recently used.
	if _, err := c.GetOrCompute(ctx, stmt(1), nil, time.Minute); err != nil {
		t.Fatal(err)
	}

	// Inserting 3 must evict 2, not 1.
	if _, err := c.GetOrCompute(ctx, stmt(3), nil, time.Minute); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Fatalf("capacity exceeded: %d entries", c.Len())
	}

	before := querier.callCount()
	if _, err := c.GetOrCompute(ctx, stmt(1), nil, time.Minute); err != nil {
		t.Fatal(err)
	}
	if querier.callCount() != before {
		t.Error("entry 1 should have survived eviction")
	}

	if _, err := c.GetOrCompute(ctx, stmt(2), nil, time.Minute); err != nil {
		t.Fatal(err)
	}
	if querier.callCount() != before+1 {
		t.Error("entry 2 should have been evicted")
	}
}

func TestCacheFailureNotCached(t *testing.T) {
	querier := &stubQuerier{err: errors.New("engine down")}
	c := New(querier, 10)
	ctx := context.Background()

	if _, err := c.GetOrCompute(ctx, "SELECT 1", nil, time.Minute); err == nil {
		t.Fatal("expected error")
	}
	if c.Len() != 0 {
		t.Errorf("failure must not be cached, got %d entries", c.Len())
	}

	// Engine recovers: next call reaches it.
	querier.mu.Lock()
	querier.err = nil
	querier.rows = testRows()
	querier.mu.Unlock()

	rows, err := c.GetOrCompute(ctx, "SELECT 1", nil, time.Minute)
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected rows after recovery, got %v", rows)
	}
	if querier.callCount() != 2 {
		t.Errorf("expected 2 engine calls, got %d", querier.callCount())
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	querier := &stubQuerier{rows: testRows()}
	c := New(querier, 8)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stmt := fmt.Sprintf("SELECT %d", i%16)
			if _, err := c.GetOrCompute(ctx, stmt, nil, time.Minute); err != nil {
				t.Errorf("GetOrCompute failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 8 {
		t.Errorf("capacity exceeded under concurrency: %d", c.Len())
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("SELECT ?", []any{1, 2})
	b := Fingerprint("SELECT ?", []any{2, 1})
	if a == b {
		t.Error("parameter order must produce distinct fingerprints")
	}
	if Fingerprint("SELECT 1", nil) != "SELECT 1" {
		t.Error("statement-only fingerprint should be the statement itself")
	}
}
