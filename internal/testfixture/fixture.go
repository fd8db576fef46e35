// Package testfixture provides the PSPLIB J301_1 instance used across tests.
package testfixture

import (
	"bytes"
	_ "embed"
	"testing"

	"github.com/kilianp07/rcpsp/core/model"
	"github.com/kilianp07/rcpsp/core/project"
	"github.com/kilianp07/rcpsp/core/rcp"
)

//go:embed testdata/J301_1.RCP
var j301 []byte

// J301Order is a precedence-feasible activity order for J301_1.
var J301Order = []int{0, 1, 2, 3, 5, 10, 14, 6, 7, 12, 4, 8, 9, 25, 11, 18, 26,
	17, 15, 13, 28, 19, 20, 16, 24, 27, 21, 30, 22, 23, 29, 31}

// J301OrderBetter is a second feasible order for J301_1.
var J301OrderBetter = []int{0, 2, 3, 12, 7, 6, 9, 1, 4, 17, 8, 15, 11, 18, 26, 10, 28,
	14, 5, 13, 25, 19, 16, 21, 20, 27, 22, 24, 23, 30, 29, 31}

// J301Bytes returns the raw RCP file content.
func J301Bytes() []byte {
	return append([]byte(nil), j301...)
}

// J301Problem parses the embedded instance.
func J301Problem(t testing.TB) *model.Problem {
	t.Helper()
	p, err := rcp.Parse(bytes.NewReader(j301))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return p
}

// J301Graph builds the project graph of the embedded instance.
func J301Graph(t testing.TB) *project.Graph {
	t.Helper()
	g, err := project.New(J301Problem(t))
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

// Chain builds a graph of n activities where each activity precedes the
// next one. Durations are all 1 and there is a single resource of
// capacity 1 demanded by every activity except the start dummy.
func Chain(t testing.TB, n int) *project.Graph {
	t.Helper()
	p := &model.Problem{NumActivities: n, NumResources: 1, Capacities: []int{1}}
	for a := 0; a < n; a++ {
		d := 1
		dem := 1
		if a == 0 {
			d, dem = 0, 0
		}
		p.Durations = append(p.Durations, d)
		p.Demands = append(p.Demands, []int{dem})
		if a > 0 {
			p.Edges = append(p.Edges, model.Edge{From: a - 1, To: a})
		}
	}
	g, err := project.New(p)
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}
	return g
}
