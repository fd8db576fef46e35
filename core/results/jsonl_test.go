package results

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	store, err := Open(Config{Backend: BackendJSONL, Path: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, run := range []string{"a", "a", "b"} {
		if err := store.Append(ctx, sample("j30", run, 40+i, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := store.Query(ctx, Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 results, got %d", len(all))
	}
	if all[0].Schedule[2] != 2 || !all[0].Timestamp.Equal(base) {
		t.Fatalf("round trip mismatch: %+v", all[0])
	}

	runA, err := store.Query(ctx, Query{File: "j30", RunID: "a"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(runA) != 2 {
		t.Fatalf("expected 2 results for run a, got %d", len(runA))
	}

	late, err := store.Query(ctx, Query{Start: base.Add(30 * time.Second)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(late) != 2 {
		t.Fatalf("expected 2 late results, got %d", len(late))
	}
}

func TestJSONLStore_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Append(context.Background(), sample("j30", "a", 43, time.Now())); err != nil {
		t.Fatalf("append: %v", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := f.WriteString("{not json\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = f.Close()
	out, err := store.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out))
	}
}

func TestJSONLStore_AppendReportsFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := store.Append(context.Background(), sample("j30", "a", 43, time.Now())); err == nil {
		t.Fatalf("expected append to a directory to fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Append(ctx, sample("j30", "a", 43, time.Now())); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
