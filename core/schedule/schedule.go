// Package schedule assigns start times to activities while keeping
// precedence and resource feasibility, and implements the justification
// passes used to compact a schedule.
package schedule

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/kilianp07/rcpsp/core/activitylist"
	"github.com/kilianp07/rcpsp/core/project"
	"github.com/kilianp07/rcpsp/core/resource"
)

var (
	// ErrConstraintViolation is returned by Add when the activity does not
	// fit at the requested start time.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrNotScheduled is returned by Remove for an activity without a
	// placement.
	ErrNotScheduled = errors.New("activity not scheduled")
	// ErrIncomplete is returned by Serialize when some activity is missing.
	ErrIncomplete = errors.New("schedule incomplete")
)

// Direction of a justification pass.
type Direction int

const (
	// LeftShift moves activities as early as possible.
	LeftShift Direction = -1
	// RightShift moves activities as late as possible.
	RightShift Direction = 1
)

// Schedule maps activities to start times. It owns its resource ledger and
// must not be shared between goroutines.
type Schedule struct {
	graph *project.Graph
	util  *resource.Utilization

	start     []int
	scheduled []bool
	count     int
	byStart   map[int][]int
	byFinish  map[int][]int
}

// New returns an empty schedule for g.
func New(g *project.Graph) *Schedule {
	n := g.NumActivities()
	return &Schedule{
		graph:     g,
		util:      resource.New(g.Capacities(), resource.DefaultHorizon),
		start:     make([]int, n),
		scheduled: make([]bool, n),
		byStart:   make(map[int][]int),
		byFinish:  make(map[int][]int),
	}
}

// Graph returns the project the schedule belongs to.
func (s *Schedule) Graph() *project.Graph { return s.graph }

// Utilization exposes the resource ledger for read-only inspection.
func (s *Schedule) Utilization() *resource.Utilization { return s.util }

// Len returns the number of scheduled activities.
func (s *Schedule) Len() int { return s.count }

// Complete reports whether every activity is scheduled.
func (s *Schedule) Complete() bool { return s.count == s.graph.NumActivities() }

// IsScheduled reports whether a has a placement.
func (s *Schedule) IsScheduled(a int) bool { return s.scheduled[a] }

// StartTime returns the start of a and whether it is scheduled.
func (s *Schedule) StartTime(a int) (int, bool) {
	if !s.scheduled[a] {
		return 0, false
	}
	return s.start[a], true
}

// FinishTime returns the finish of a and whether it is scheduled.
func (s *Schedule) FinishTime(a int) (int, bool) {
	if !s.scheduled[a] {
		return 0, false
	}
	return s.start[a] + s.graph.Duration(a), true
}

// StartTimes returns the start time of every activity indexed by id.
// Unscheduled activities report -1.
func (s *Schedule) StartTimes() []int {
	out := make([]int, len(s.start))
	for a := range out {
		out[a] = -1
		if s.scheduled[a] {
			out[a] = s.start[a]
		}
	}
	return out
}

// StartEvents returns the distinct start times in ascending order.
func (s *Schedule) StartEvents() []int { return slices.Sorted(maps.Keys(s.byStart)) }

// FinishEvents returns the distinct finish times in ascending order.
func (s *Schedule) FinishEvents() []int { return slices.Sorted(maps.Keys(s.byFinish)) }

// StartingAt returns the activities starting at t in ascending order.
func (s *Schedule) StartingAt(t int) []int { return sortedCopy(s.byStart[t]) }

// FinishingAt returns the activities finishing at t in ascending order.
func (s *Schedule) FinishingAt(t int) []int { return sortedCopy(s.byFinish[t]) }

// Makespan is the latest finish time, 0 for an empty schedule.
func (s *Schedule) Makespan() int {
	m := 0
	for t := range s.byFinish {
		m = max(m, t)
	}
	return m
}

// CanPlace reports whether a fits at start: resources are free over its
// duration and every transitive predecessor finished at or before start.
func (s *Schedule) CanPlace(a, start int) bool {
	finish := start + s.graph.Duration(a)
	if !s.util.IsFree(s.graph.Demand(a), start, finish) {
		return false
	}
	for _, p := range s.graph.AllPredecessors(a) {
		if !s.scheduled[p] || s.start[p]+s.graph.Duration(p) > start {
			return false
		}
	}
	return true
}

// Add places a at start. Unless force is set, the placement is checked with
// CanPlace first.
func (s *Schedule) Add(a, start int, force bool) error {
	if s.scheduled[a] {
		return fmt.Errorf("%w: activity %d already scheduled at %d", ErrConstraintViolation, a, s.start[a])
	}
	if !force && !s.CanPlace(a, start) {
		return fmt.Errorf("%w: activity %d cannot start at %d", ErrConstraintViolation, a, start)
	}
	finish := start + s.graph.Duration(a)
	s.start[a] = start
	s.scheduled[a] = true
	s.count++
	s.byStart[start] = append(s.byStart[start], a)
	s.byFinish[finish] = append(s.byFinish[finish], a)
	s.util.Add(s.graph.Demand(a), start, finish)
	return nil
}

// Remove unschedules a and releases its resources.
func (s *Schedule) Remove(a int) error {
	if !s.scheduled[a] {
		return fmt.Errorf("%w: %d", ErrNotScheduled, a)
	}
	start := s.start[a]
	finish := start + s.graph.Duration(a)
	if err := s.util.Remove(s.graph.Demand(a), start, finish); err != nil {
		return fmt.Errorf("remove activity %d: %w", a, err)
	}
	s.scheduled[a] = false
	s.count--
	dropFrom(s.byStart, start, a)
	dropFrom(s.byFinish, finish, a)
	return nil
}

// EligibleActivities returns, in ascending order, the unscheduled
// activities whose transitive predecessors are all scheduled.
func (s *Schedule) EligibleActivities() []int {
	var out []int
	for a := 0; a < s.graph.NumActivities(); a++ {
		if !s.scheduled[a] && s.graph.ContainsAllPredecessors(s.scheduled, a) {
			out = append(out, a)
		}
	}
	return out
}

// EarliestPrecedenceStart is the latest finish among the scheduled direct
// predecessors of a, or 0.
func (s *Schedule) EarliestPrecedenceStart(a int) int {
	est := 0
	for _, p := range s.graph.Predecessors(a) {
		if s.scheduled[p] {
			est = max(est, s.start[p]+s.graph.Duration(p))
		}
	}
	return est
}

// LatestPrecedenceStart is the earliest start among the scheduled direct
// successors of a, capped by the makespan, minus the duration of a.
func (s *Schedule) LatestPrecedenceStart(a int) int {
	lst := s.Makespan()
	for _, succ := range s.graph.Successors(a) {
		if s.scheduled[succ] {
			lst = min(lst, s.start[succ])
		}
	}
	return lst - s.graph.Duration(a)
}

// Shift runs one justification pass. Activities are visited by decreasing
// start time for RightShift and increasing start time for LeftShift, ties
// by ascending id, the start dummy excluded. Each activity is removed and
// re-added at the first feasible start time among those already used by
// other activities, scanning from the precedence bound back towards its
// original start. It returns to its original start when nothing else fits.
func (s *Schedule) Shift(d Direction) error {
	events := s.StartEvents()
	if d == RightShift {
		slices.Reverse(events)
	}
	for _, t := range events {
		for _, a := range s.StartingAt(t) {
			if a == 0 || s.start[a] != t {
				continue
			}
			if err := s.reposition(a, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Schedule) reposition(a int, d Direction) error {
	orig := s.start[a]
	if err := s.Remove(a); err != nil {
		return err
	}
	var lo, hi int
	if d == RightShift {
		lo, hi = orig, s.LatestPrecedenceStart(a)
	} else {
		lo, hi = s.EarliestPrecedenceStart(a), orig
	}
	candidates := make([]int, 0, len(s.byStart))
	for t := range s.byStart {
		if t >= lo && t <= hi {
			candidates = append(candidates, t)
		}
	}
	slices.Sort(candidates)
	if d == RightShift {
		slices.Reverse(candidates)
	}
	for _, t := range candidates {
		if s.CanPlace(a, t) {
			return s.Add(a, t, true)
		}
	}
	return s.Add(a, orig, true)
}

// maxJustifyRounds bounds the right and left pass pairs of DoubleJustify.
const maxJustifyRounds = 100

// DoubleJustify alternates right and left passes until the placements stop
// changing. Slot-restricted passes can also fall into a cycle of placements;
// the cycle member with the smallest makespan, then the smallest start
// times, is kept. Either way a second call leaves the schedule unchanged.
func (s *Schedule) DoubleJustify() error {
	var visited []*Schedule
	index := make(map[string]int)
	for range maxJustifyRounds {
		key := placementKey(s.StartTimes())
		if i, ok := index[key]; ok {
			*s = *canonical(visited[i:])
			return nil
		}
		index[key] = len(visited)
		visited = append(visited, s.Clone())
		if err := s.Shift(RightShift); err != nil {
			return err
		}
		if err := s.Shift(LeftShift); err != nil {
			return err
		}
	}
	return nil
}

func canonical(cycle []*Schedule) *Schedule {
	best := cycle[0]
	for _, c := range cycle[1:] {
		if c.Makespan() < best.Makespan() ||
			(c.Makespan() == best.Makespan() && slices.Compare(c.StartTimes(), best.StartTimes()) < 0) {
			best = c
		}
	}
	return best.Clone()
}

func placementKey(starts []int) string {
	b := make([]byte, 0, 4*len(starts))
	for _, t := range starts {
		b = strconv.AppendInt(b, int64(t), 10)
		b = append(b, ',')
	}
	return string(b)
}

// Serialize emits the activities ordered by start time and then id. Within
// one start time an activity still follows any zero-duration predecessor
// that starts at the same time, so the result is always precedence
// feasible.
func (s *Schedule) Serialize() (*activitylist.ActivityList, error) {
	if !s.Complete() {
		return nil, fmt.Errorf("%w: %d of %d activities", ErrIncomplete, s.count, s.graph.NumActivities())
	}
	order := make([]int, 0, s.count)
	for _, t := range s.StartEvents() {
		order = append(order, s.bucketOrder(s.StartingAt(t))...)
	}
	return activitylist.New(s.graph, order)
}

// bucketOrder repeatedly emits the smallest id whose predecessors inside
// the bucket are already emitted.
func (s *Schedule) bucketOrder(bucket []int) []int {
	out := make([]int, 0, len(bucket))
	done := make([]bool, len(bucket))
	for len(out) < len(bucket) {
		for i, a := range bucket {
			if done[i] || !s.readyIn(bucket, done, a) {
				continue
			}
			out = append(out, a)
			done[i] = true
			break
		}
	}
	return out
}

func (s *Schedule) readyIn(bucket []int, done []bool, a int) bool {
	for j, b := range bucket {
		if !done[j] && b != a && s.graph.IsPredecessor(b, a) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy sharing the graph.
func (s *Schedule) Clone() *Schedule {
	c := &Schedule{
		graph:     s.graph,
		util:      s.util.Clone(),
		start:     slices.Clone(s.start),
		scheduled: slices.Clone(s.scheduled),
		count:     s.count,
		byStart:   make(map[int][]int, len(s.byStart)),
		byFinish:  make(map[int][]int, len(s.byFinish)),
	}
	for t, as := range s.byStart {
		c.byStart[t] = slices.Clone(as)
	}
	for t, as := range s.byFinish {
		c.byFinish[t] = slices.Clone(as)
	}
	return c
}

func dropFrom(index map[int][]int, t, a int) {
	bucket := index[t]
	if i := slices.Index(bucket, a); i >= 0 {
		bucket = slices.Delete(bucket, i, i+1)
	}
	if len(bucket) == 0 {
		delete(index, t)
		return
	}
	index[t] = bucket
}

func sortedCopy(as []int) []int {
	out := slices.Clone(as)
	slices.Sort(out)
	return out
}
