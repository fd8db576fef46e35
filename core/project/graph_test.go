package project_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rcpsp/core/model"
	"github.com/kilianp07/rcpsp/core/project"
	"github.com/kilianp07/rcpsp/internal/testfixture"
)

func TestGraphQueries(t *testing.T) {
	g := testfixture.J301Graph(t)
	assert.Equal(t, 32, g.NumActivities())
	assert.Equal(t, 4, g.NumResources())
	assert.Equal(t, []int{12, 13, 4, 12}, g.Capacities())
	assert.Equal(t, 8, g.Duration(1))
	assert.Equal(t, []int{4, 0, 0, 0}, g.Demand(1))
	assert.Equal(t, []int{1, 2, 3}, g.Successors(0))
	assert.Empty(t, g.Predecessors(0))
	assert.Equal(t, []int{5, 10, 14}, g.Successors(1))
	assert.Equal(t, []int{4, 10, 17}, g.Predecessors(19))
}

func TestAllPredecessors(t *testing.T) {
	g := testfixture.J301Graph(t)
	assert.Equal(t, []int{0}, g.AllPredecessors(1))
	assert.Equal(t, []int{0, 3}, g.AllPredecessors(8))
	assert.Equal(t, []int{0, 2, 3, 7, 8, 11}, g.AllPredecessors(13))
	all := make([]int, 31)
	for i := range all {
		all[i] = i
	}
	assert.Equal(t, all, g.AllPredecessors(31))
	assert.True(t, g.IsPredecessor(3, 13))
	assert.False(t, g.IsPredecessor(13, 3))
}

func TestContainsAllPredecessors(t *testing.T) {
	g := testfixture.J301Graph(t)
	placed := make([]bool, g.NumActivities())
	if g.ContainsAllPredecessors(placed, 1) {
		t.Fatalf("activity 1 needs activity 0")
	}
	if !g.ContainsAllPredecessors(placed, 0) {
		t.Fatalf("start activity has no predecessors")
	}
	placed[0] = true
	placed[3] = true
	if !g.ContainsAllPredecessors(placed, 8) {
		t.Fatalf("expected predecessors of 8 placed")
	}
	if g.ContainsAllPredecessors(placed, 13) {
		t.Fatalf("13 still misses transitive predecessors")
	}
}

func TestTopologicalOrderRespectsEdges(t *testing.T) {
	g := testfixture.J301Graph(t)
	order := g.TopologicalOrder()
	require.Len(t, order, g.NumActivities())
	pos := make([]int, len(order))
	for i, a := range order {
		pos[a] = i
	}
	for a := 0; a < g.NumActivities(); a++ {
		for _, s := range g.Successors(a) {
			if pos[a] >= pos[s] {
				t.Fatalf("edge %d->%d violated by order %v", a, s, order)
			}
		}
	}
}

func TestNewRejectsCycle(t *testing.T) {
	p := &model.Problem{
		NumActivities: 3,
		NumResources:  0,
		Durations:     []int{0, 1, 1},
		Demands:       [][]int{{}, {}, {}},
		Edges:         []model.Edge{{From: 0, To: 1}, {From: 1, To: 2}, {From: 2, To: 1}},
	}
	_, err := project.New(p)
	if !errors.Is(err, project.ErrCycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestNewRejectsInvalidProblem(t *testing.T) {
	p := &model.Problem{
		NumActivities: 2,
		NumResources:  1,
		Capacities:    []int{1},
		Durations:     []int{0, 1},
		Demands:       [][]int{{0}, {2}},
	}
	_, err := project.New(p)
	if !errors.Is(err, model.ErrInvalidProblem) {
		t.Fatalf("expected invalid problem, got %v", err)
	}
	if _, err := project.New(nil); err == nil {
		t.Fatalf("expected error for nil problem")
	}
}
