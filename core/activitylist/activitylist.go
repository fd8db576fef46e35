// Package activitylist implements the permutation encoding searched by the
// genetic optimizer: an ordering of all activities in which every activity
// appears after all of its transitive predecessors.
package activitylist

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/kilianp07/rcpsp/core/project"
)

var (
	// ErrPrecedenceViolation is returned when an order places an activity
	// before one of its predecessors.
	ErrPrecedenceViolation = errors.New("precedence violation")
	// ErrInvalidOrder is returned when an order is not a permutation of the
	// project's activities.
	ErrInvalidOrder = errors.New("invalid activity order")
	// ErrInvalidCut is returned by Crossover for out of range cut points.
	ErrInvalidCut = errors.New("invalid crossover cut")
)

// Direction selects which way Shift moves an activity.
type Direction int

const (
	// Left moves an activity towards the front of the list.
	Left Direction = -1
	// Right moves an activity towards the end of the list.
	Right Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// ActivityList is a precedence-feasible permutation of a project's
// activities.
type ActivityList struct {
	graph *project.Graph
	order []int
}

// New validates order against g and returns the list. A nil order yields a
// zero-filled placeholder of the right length which is only meant to be
// overwritten.
func New(g *project.Graph, order []int) (*ActivityList, error) {
	n := g.NumActivities()
	if order == nil {
		return &ActivityList{graph: g, order: make([]int, n)}, nil
	}
	if len(order) != n {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrInvalidOrder, len(order), n)
	}
	seen := make([]bool, n)
	for i, a := range order {
		if a < 0 || a >= n {
			return nil, fmt.Errorf("%w: activity %d out of range", ErrInvalidOrder, a)
		}
		if seen[a] {
			return nil, fmt.Errorf("%w: activity %d repeated", ErrInvalidOrder, a)
		}
		if !g.ContainsAllPredecessors(seen, a) {
			return nil, fmt.Errorf("%w: activity %d at position %d precedes a predecessor", ErrPrecedenceViolation, a, i)
		}
		seen[a] = true
	}
	return &ActivityList{graph: g, order: slices.Clone(order)}, nil
}

// Random builds a feasible list by repeatedly drawing uniformly from the set
// of activities whose predecessors are all placed.
func Random(g *project.Graph, rng *rand.Rand) *ActivityList {
	n := g.NumActivities()
	placed := make([]bool, n)
	queued := make([]bool, n)
	order := make([]int, 0, n)
	var frontier []int
	for a := 0; a < n; a++ {
		if len(g.Predecessors(a)) == 0 {
			frontier = append(frontier, a)
			queued[a] = true
		}
	}
	for len(frontier) > 0 {
		i := rng.IntN(len(frontier))
		a := frontier[i]
		last := len(frontier) - 1
		frontier[i] = frontier[last]
		frontier = frontier[:last]

		placed[a] = true
		order = append(order, a)
		for _, s := range g.Successors(a) {
			if !queued[s] && g.ContainsAllPredecessors(placed, s) {
				frontier = append(frontier, s)
				queued[s] = true
			}
		}
	}
	return &ActivityList{graph: g, order: order}
}

// Len returns the number of activities.
func (l *ActivityList) Len() int { return len(l.order) }

// At returns the activity at position i.
func (l *ActivityList) At(i int) int { return l.order[i] }

// Order returns a copy of the permutation.
func (l *ActivityList) Order() []int { return slices.Clone(l.order) }

// Graph returns the project graph the list was built for.
func (l *ActivityList) Graph() *project.Graph { return l.graph }

// Clone returns an independent copy sharing the read-only graph.
func (l *ActivityList) Clone() *ActivityList {
	return &ActivityList{graph: l.graph, order: slices.Clone(l.order)}
}

// Equal reports whether both lists hold the same order.
func (l *ActivityList) Equal(o *ActivityList) bool {
	return slices.Equal(l.order, o.order)
}

// IndexOf returns the position of activity a or -1.
func (l *ActivityList) IndexOf(a int) int { return slices.Index(l.order, a) }

// IsPrecedenceFeasible checks the ordering invariant.
func (l *ActivityList) IsPrecedenceFeasible() bool {
	placed := make([]bool, l.graph.NumActivities())
	for _, a := range l.order {
		if !l.graph.ContainsAllPredecessors(placed, a) {
			return false
		}
		placed[a] = true
	}
	return true
}

// Shift moves activity a by up to steps adjacent swaps in direction d. A
// swap is skipped, and the shift stops, when it would leave the list or
// place a before one of its predecessors (or after one of its successors).
// It returns the number of swaps performed.
func (l *ActivityList) Shift(a int, d Direction, steps int) int {
	i := l.IndexOf(a)
	if i < 0 || (d != Left && d != Right) {
		return 0
	}
	done := 0
	for done < steps {
		j := i + int(d)
		if j < 0 || j >= len(l.order) {
			break
		}
		other := l.order[j]
		if d == Right && l.graph.IsPredecessor(a, other) {
			break
		}
		if d == Left && l.graph.IsPredecessor(other, a) {
			break
		}
		l.order[i], l.order[j] = other, a
		i = j
		done++
	}
	return done
}

// Crossover builds a child from the two-point order crossover of l and
// other. Positions [0, c1) are copied from l, positions [c1, c2) are filled
// with the remaining activities in the order they appear in other, and the
// rest follow the order of l. Both parents being feasible, the child is
// feasible as well.
func (l *ActivityList) Crossover(other *ActivityList, c1, c2 int) (*ActivityList, error) {
	n := len(l.order)
	if len(other.order) != n {
		return nil, fmt.Errorf("%w: parents of length %d and %d", ErrInvalidOrder, n, len(other.order))
	}
	if c1 < 0 || c1 > c2 || c2 >= n {
		return nil, fmt.Errorf("%w: c1=%d c2=%d n=%d", ErrInvalidCut, c1, c2, n)
	}
	placed := make([]bool, n)
	child := make([]int, 0, n)
	for _, a := range l.order[:c1] {
		child = append(child, a)
		placed[a] = true
	}
	for _, a := range other.order {
		if len(child) >= c2 {
			break
		}
		if !placed[a] {
			child = append(child, a)
			placed[a] = true
		}
	}
	for _, a := range l.order[c1:] {
		if !placed[a] {
			child = append(child, a)
			placed[a] = true
		}
	}
	return &ActivityList{graph: l.graph, order: child}, nil
}
