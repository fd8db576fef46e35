package model

import (
	"errors"
	"fmt"
)

// ErrInvalidProblem is returned when a Problem is inconsistent with its
// declared activity and resource counts.
var ErrInvalidProblem = errors.New("invalid problem")

// Edge is a precedence relation: From must finish before To starts.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Problem is the parsed description of a single-mode RCPSP instance.
// Activity ids are 0-based; activity 0 is the start dummy.
type Problem struct {
	NumActivities int     `json:"num_activities"`
	NumResources  int     `json:"num_resources"`
	Capacities    []int   `json:"capacities"`
	Durations     []int   `json:"durations"`
	Demands       [][]int `json:"demands"`
	Edges         []Edge  `json:"edges"`
}

// Validate checks that every slice matches the declared dimensions and that
// all values are non-negative.
//
//gocyclo:ignore
func (p Problem) Validate() error {
	if p.NumActivities <= 0 {
		return fmt.Errorf("%w: no activities", ErrInvalidProblem)
	}
	if p.NumResources < 0 {
		return fmt.Errorf("%w: negative resource count", ErrInvalidProblem)
	}
	if len(p.Capacities) != p.NumResources {
		return fmt.Errorf("%w: %d capacities for %d resources", ErrInvalidProblem, len(p.Capacities), p.NumResources)
	}
	for r, c := range p.Capacities {
		if c < 0 {
			return fmt.Errorf("%w: negative capacity for resource %d", ErrInvalidProblem, r)
		}
	}
	if len(p.Durations) != p.NumActivities || len(p.Demands) != p.NumActivities {
		return fmt.Errorf("%w: expected %d durations and demand rows, got %d and %d",
			ErrInvalidProblem, p.NumActivities, len(p.Durations), len(p.Demands))
	}
	for a := 0; a < p.NumActivities; a++ {
		if p.Durations[a] < 0 {
			return fmt.Errorf("%w: negative duration for activity %d", ErrInvalidProblem, a)
		}
		if len(p.Demands[a]) != p.NumResources {
			return fmt.Errorf("%w: activity %d has %d demands, want %d", ErrInvalidProblem, a, len(p.Demands[a]), p.NumResources)
		}
		for r, d := range p.Demands[a] {
			if d < 0 {
				return fmt.Errorf("%w: negative demand of activity %d on resource %d", ErrInvalidProblem, a, r)
			}
			if d > p.Capacities[r] {
				return fmt.Errorf("%w: activity %d demands %d of resource %d with capacity %d",
					ErrInvalidProblem, a, d, r, p.Capacities[r])
			}
		}
	}
	for _, e := range p.Edges {
		if e.From < 0 || e.From >= p.NumActivities || e.To < 0 || e.To >= p.NumActivities {
			return fmt.Errorf("%w: edge %d->%d out of range", ErrInvalidProblem, e.From, e.To)
		}
		if e.From == e.To {
			return fmt.Errorf("%w: self loop on activity %d", ErrInvalidProblem, e.From)
		}
		if e.To == 0 {
			return fmt.Errorf("%w: start activity 0 has predecessor %d", ErrInvalidProblem, e.From)
		}
	}
	return nil
}
