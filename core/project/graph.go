package project

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/kilianp07/rcpsp/core/model"
)

// ErrCycle is returned when the precedence edges do not form a DAG.
var ErrCycle = errors.New("precedence cycle")

// Graph is the immutable precedence structure of a project. All queries are
// answered from tables computed once in New, so a Graph can be shared by
// concurrent readers without locking.
type Graph struct {
	n, m       int
	capacities []int
	durations  []int
	demands    [][]int

	order    []int
	preds    [][]int
	succs    [][]int
	allPreds [][]int
	// before[a][p] reports whether p is a transitive predecessor of a.
	before [][]bool
}

// New validates the problem and builds its precedence graph.
func New(p *model.Problem) (*Graph, error) {
	if p == nil {
		return nil, fmt.Errorf("project: nil problem")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := p.NumActivities

	dag := simple.NewDirectedGraph()
	for a := 0; a < n; a++ {
		dag.AddNode(simple.Node(a))
	}
	for _, e := range p.Edges {
		dag.SetEdge(dag.NewEdge(simple.Node(e.From), simple.Node(e.To)))
	}
	sorted, err := topo.Sort(dag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}

	g := &Graph{
		n:          n,
		m:          p.NumResources,
		capacities: slices.Clone(p.Capacities),
		durations:  slices.Clone(p.Durations),
		demands:    make([][]int, n),
		order:      make([]int, 0, n),
		preds:      make([][]int, n),
		succs:      make([][]int, n),
		allPreds:   make([][]int, n),
		before:     make([][]bool, n),
	}
	for a := 0; a < n; a++ {
		g.demands[a] = slices.Clone(p.Demands[a])
		g.before[a] = make([]bool, n)
	}
	for _, node := range sorted {
		g.order = append(g.order, int(node.ID()))
	}
	for a := 0; a < n; a++ {
		to := dag.To(int64(a))
		for to.Next() {
			g.preds[a] = append(g.preds[a], int(to.Node().ID()))
		}
		from := dag.From(int64(a))
		for from.Next() {
			g.succs[a] = append(g.succs[a], int(from.Node().ID()))
		}
		slices.Sort(g.preds[a])
		slices.Sort(g.succs[a])
	}

	// Closure over incoming edges, visiting activities in topological order
	// so every predecessor row is complete before it is merged.
	for _, a := range g.order {
		row := g.before[a]
		for _, p := range g.preds[a] {
			row[p] = true
			for q, ok := range g.before[p] {
				if ok {
					row[q] = true
				}
			}
		}
		for q, ok := range row {
			if ok {
				g.allPreds[a] = append(g.allPreds[a], q)
			}
		}
	}
	return g, nil
}

// NumActivities returns n.
func (g *Graph) NumActivities() int { return g.n }

// NumResources returns m.
func (g *Graph) NumResources() int { return g.m }

// Capacity returns the capacity of resource r.
func (g *Graph) Capacity(r int) int { return g.capacities[r] }

// Capacities returns a copy of the capacity vector.
func (g *Graph) Capacities() []int { return slices.Clone(g.capacities) }

// Duration returns the duration of activity a.
func (g *Graph) Duration(a int) int { return g.durations[a] }

// Demand returns the demand vector of activity a. The slice is shared and
// must not be modified.
func (g *Graph) Demand(a int) []int { return g.demands[a] }

// Predecessors returns the direct predecessors of a in ascending order. The
// slice is shared and must not be modified.
func (g *Graph) Predecessors(a int) []int { return g.preds[a] }

// Successors returns the direct successors of a in ascending order. The
// slice is shared and must not be modified.
func (g *Graph) Successors(a int) []int { return g.succs[a] }

// AllPredecessors returns every transitive predecessor of a in ascending
// order. The slice is shared and must not be modified.
func (g *Graph) AllPredecessors(a int) []int { return g.allPreds[a] }

// IsPredecessor reports whether p must finish before a can start, directly
// or transitively.
func (g *Graph) IsPredecessor(p, a int) bool { return g.before[a][p] }

// TopologicalOrder returns a copy of one topological order of the graph.
func (g *Graph) TopologicalOrder() []int { return slices.Clone(g.order) }

// ContainsAllPredecessors reports whether every transitive predecessor of a
// is marked in placed, which is indexed by activity id.
func (g *Graph) ContainsAllPredecessors(placed []bool, a int) bool {
	for _, p := range g.allPreds[a] {
		if !placed[p] {
			return false
		}
	}
	return true
}
