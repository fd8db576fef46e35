// Package relationship tracks, for pairs of activities, the best makespan
// seen among schedules where the pair stood in a given timing relation.
// Pairs whose best value is the worst one on record are candidates to be
// broken up by mutation.
package relationship

import (
	"math"
	"slices"

	"github.com/kilianp07/rcpsp/core/schedule"
)

// Kind selects the timing relation a table records.
type Kind int

const (
	// PSE pairs activities that start at the same time.
	PSE Kind = iota
	// FLE pairs i with j when i finishes no later than j.
	FLE
	// SLT pairs i with j when i starts strictly before j.
	SLT
)

// Kinds lists every relation kind.
var Kinds = [...]Kind{PSE, FLE, SLT}

func (k Kind) String() string {
	switch k {
	case PSE:
		return "PSE"
	case FLE:
		return "FLE"
	case SLT:
		return "SLT"
	default:
		return "unknown"
	}
}

// Unset is the value of a cell that has not been observed yet.
const Unset = math.MaxInt

// Pair is an ordered pair of activities.
type Pair struct {
	First, Second int
}

// Table is an n x n matrix of best makespans for one Kind. Cells only
// decrease.
type Table struct {
	kind  Kind
	n     int
	cells []int
}

// NewTable returns a table with every cell Unset.
func NewTable(kind Kind, n int) *Table {
	cells := make([]int, n*n)
	for i := range cells {
		cells[i] = Unset
	}
	return &Table{kind: kind, n: n, cells: cells}
}

// Kind returns the relation recorded by the table.
func (t *Table) Kind() Kind { return t.kind }

// Get returns the best makespan recorded for (i, j).
func (t *Table) Get(i, j int) int { return t.cells[i*t.n+j] }

func (t *Table) observe(i, j, makespan int) {
	c := &t.cells[i*t.n+j]
	if makespan < *c {
		*c = makespan
	}
}

// Update records the makespan of s for every pair standing in the table's
// relation in s.
func (t *Table) Update(s *schedule.Schedule) {
	makespan := s.Makespan()
	switch t.kind {
	case PSE:
		// Simultaneous starts are symmetric, so only (low id, high id) is kept.
		for _, ts := range s.StartEvents() {
			bucket := s.StartingAt(ts)
			for x, i := range bucket {
				for _, j := range bucket[x+1:] {
					t.observe(i, j, makespan)
				}
			}
		}
	case FLE:
		var previous []int
		for _, ts := range s.FinishEvents() {
			current := s.FinishingAt(ts)
			previous = append(previous, current...)
			for _, i := range previous {
				for _, j := range current {
					t.observe(i, j, makespan)
				}
			}
		}
	case SLT:
		var previous []int
		for _, ts := range s.StartEvents() {
			current := s.StartingAt(ts)
			for _, i := range previous {
				for _, j := range current {
					t.observe(i, j, makespan)
				}
			}
			previous = append(previous, current...)
		}
	}
}

// Worst returns the largest recorded value and false when nothing has been
// recorded yet.
func (t *Table) Worst() (int, bool) {
	worst, ok := 0, false
	for _, c := range t.cells {
		if c != Unset && c >= worst {
			worst, ok = c, true
		}
	}
	return worst, ok
}

// Excluding returns, in row-major order, the pairs whose recorded value
// equals the worst recorded value.
func (t *Table) Excluding() []Pair {
	worst, ok := t.Worst()
	if !ok {
		return nil
	}
	var out []Pair
	for idx, c := range t.cells {
		if c == worst {
			out = append(out, Pair{First: idx / t.n, Second: idx % t.n})
		}
	}
	return out
}

// System holds one table per Kind.
type System struct {
	tables [len(Kinds)]*Table
}

// NewSystem returns a system for n activities.
func NewSystem(n int) *System {
	s := &System{}
	for _, k := range Kinds {
		s.tables[k] = NewTable(k, n)
	}
	return s
}

// Table returns the table of kind k.
func (s *System) Table(k Kind) *Table { return s.tables[k] }

// Update feeds sched into every table.
func (s *System) Update(sched *schedule.Schedule) {
	for _, t := range s.tables {
		t.Update(sched)
	}
}

// ExcludingActivities returns the sorted ids appearing in any excluding pair
// of any table.
func (s *System) ExcludingActivities() []int {
	seen := map[int]struct{}{}
	for _, t := range s.tables {
		for _, p := range t.Excluding() {
			seen[p.First] = struct{}{}
			seen[p.Second] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}
