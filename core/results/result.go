// Package results persists and aggregates the outcome of optimizer runs.
package results

import (
	"context"
	"errors"
	"time"
)

// ErrNoResults is returned when aggregating an empty result set.
var ErrNoResults = errors.New("no results")

// RunResult captures the outcome of one optimizer run on one instance.
type RunResult struct {
	File               string    `json:"file"`
	RunID              string    `json:"run_id"`
	Makespan           int       `json:"makespan"`
	Schedule           []int     `json:"schedule"`
	StartTimes         []int     `json:"start_times"`
	Generations        int       `json:"generations"`
	SchedulesGenerated int       `json:"schedules_generated"`
	Timestamp          time.Time `json:"timestamp"`
}

// Query defines filters for retrieving results. Zero fields match anything.
type Query struct {
	File  string
	RunID string
	Start time.Time
	End   time.Time
}

// Matches reports whether r passes every filter of q.
func (q Query) Matches(r RunResult) bool {
	if q.File != "" && r.File != q.File {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	return true
}

// Store persists RunResults and supports querying.
type Store interface {
	Append(ctx context.Context, r RunResult) error
	Query(ctx context.Context, q Query) ([]RunResult, error)
	Close() error
}

// Publisher announces finished runs to other processes.
type Publisher interface {
	Publish(ctx context.Context, r RunResult) error
}

// Best returns the result with the smallest makespan. Ties keep the first
// one in rs.
func Best(rs []RunResult) (RunResult, error) {
	if len(rs) == 0 {
		return RunResult{}, ErrNoResults
	}
	best := rs[0]
	for _, r := range rs[1:] {
		if r.Makespan < best.Makespan {
			best = r
		}
	}
	return best, nil
}

// NopStore discards results.
type NopStore struct{}

func (NopStore) Append(context.Context, RunResult) error { return nil }

func (NopStore) Query(context.Context, Query) ([]RunResult, error) { return nil, nil }

func (NopStore) Close() error { return nil }
