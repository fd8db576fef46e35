package metrics

import (
	"errors"
	"testing"

	coremetrics "github.com/kilianp07/rcpsp/core/metrics"
)

type recordSink struct {
	count int
}

func (r *recordSink) RecordGeneration(coremetrics.GenerationStats) error {
	r.count++
	return nil
}

func (r *recordSink) RecordRun(coremetrics.RunStats) error {
	r.count++
	return nil
}

type genOnly struct{ err error }

func (g genOnly) RecordGeneration(coremetrics.GenerationStats) error { return g.err }

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2, genOnly{})
	if err := m.RecordGeneration(coremetrics.GenerationStats{}); err != nil {
		t.Fatalf("record generation: %v", err)
	}
	if err := m.RecordRun(coremetrics.RunStats{}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("results not forwarded")
	}
}

func TestMultiSinkStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	s := &recordSink{}
	m := NewMultiSink(genOnly{err: boom}, s)
	if err := m.RecordGeneration(coremetrics.GenerationStats{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if s.count != 0 {
		t.Fatalf("sink after failure should not be called")
	}
}

func TestCombine(t *testing.T) {
	if _, ok := Combine().(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink")
	}
	s := &recordSink{}
	if Combine(s) != s {
		t.Fatalf("expected the single sink")
	}
	if _, ok := Combine(s, s).(*MultiSink); !ok {
		t.Fatalf("expected MultiSink")
	}
}
