// Package resource keeps the per-time-step demand committed to each
// renewable resource of a schedule.
package resource

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultHorizon is the initial number of time steps tracked.
const DefaultHorizon = 16

// ErrUnderflow is returned when a removal would drive a cell negative.
var ErrUnderflow = errors.New("resource utilization underflow")

// Utilization is an m x H ledger of committed demand. It is not safe for
// concurrent use and belongs to exactly one schedule.
type Utilization struct {
	capacities []int
	horizon    int
	cells      [][]int
}

// New returns an empty ledger for the given capacities. A non-positive
// horizon selects DefaultHorizon.
func New(capacities []int, horizon int) *Utilization {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	u := &Utilization{
		capacities: slices.Clone(capacities),
		horizon:    horizon,
		cells:      make([][]int, len(capacities)),
	}
	for r := range u.cells {
		u.cells[r] = make([]int, horizon)
	}
	return u
}

// Horizon returns the number of time steps currently stored.
func (u *Utilization) Horizon() int { return u.horizon }

// ExtendMakespan grows the horizon to at least t by appending zero-filled
// chunks that are multiples of the current horizon. Existing cells are
// never touched.
func (u *Utilization) ExtendMakespan(t int) {
	if t <= u.horizon {
		return
	}
	grow := u.horizon * (t / u.horizon)
	for r := range u.cells {
		u.cells[r] = append(u.cells[r], make([]int, grow)...)
	}
	u.horizon += grow
}

// Add commits demand over [start, finish). Callers check IsFree first.
func (u *Utilization) Add(demand []int, start, finish int) {
	u.ExtendMakespan(finish)
	for r, d := range demand {
		if d == 0 {
			continue
		}
		row := u.cells[r]
		for t := start; t < finish; t++ {
			row[t] += d
		}
	}
}

// Remove releases demand over [start, finish). Nothing is modified when any
// cell would become negative.
func (u *Utilization) Remove(demand []int, start, finish int) error {
	for r, d := range demand {
		if d == 0 {
			continue
		}
		for t := start; t < finish; t++ {
			if u.Get(r, t) < d {
				return fmt.Errorf("%w: resource %d at time %d", ErrUnderflow, r, t)
			}
		}
	}
	for r, d := range demand {
		if d == 0 {
			continue
		}
		row := u.cells[r]
		for t := start; t < finish; t++ {
			row[t] -= d
		}
	}
	return nil
}

// IsFree reports whether demand fits over [start, finish) without exceeding
// any capacity.
func (u *Utilization) IsFree(demand []int, start, finish int) bool {
	for r, d := range demand {
		if d == 0 {
			continue
		}
		limit := u.capacities[r] - d
		if limit < 0 {
			return false
		}
		end := min(finish, u.horizon)
		row := u.cells[r]
		for t := start; t < end; t++ {
			if row[t] > limit {
				return false
			}
		}
	}
	return true
}

// Get returns the committed demand of resource r at time t. Times outside
// the horizon read as zero.
func (u *Utilization) Get(r, t int) int {
	if t < 0 || t >= u.horizon {
		return 0
	}
	return u.cells[r][t]
}

// Remaining returns the free capacity of resource r at time t.
func (u *Utilization) Remaining(r, t int) int {
	return u.capacities[r] - u.Get(r, t)
}

// Clone returns an independent copy of the ledger.
func (u *Utilization) Clone() *Utilization {
	c := &Utilization{
		capacities: u.capacities,
		horizon:    u.horizon,
		cells:      make([][]int, len(u.cells)),
	}
	for r, row := range u.cells {
		c.cells[r] = slices.Clone(row)
	}
	return c
}
