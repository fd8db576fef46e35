package results

import (
	"context"
	"testing"
	"time"
)

func TestSQLiteStore_PersistQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:results_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recs := []RunResult{
		sample("j301_1", "run-1", 45, base),
		sample("j301_1", "run-1", 43, base.Add(time.Minute)),
		sample("j301_2", "run-1", 50, base.Add(2*time.Minute)),
	}
	for _, r := range recs {
		if err := store.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	out, err := store.Query(ctx, Query{File: "j301_1", RunID: "run-1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	best, err := Best(out)
	if err != nil {
		t.Fatalf("best: %v", err)
	}
	if best.Makespan != 43 {
		t.Fatalf("expected best makespan 43, got %d", best.Makespan)
	}

	window, err := store.Query(ctx, Query{Start: base.Add(30 * time.Second), End: base.Add(90 * time.Second)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(window) != 1 || window[0].Makespan != 43 {
		t.Fatalf("unexpected window result: %+v", window)
	}
}
