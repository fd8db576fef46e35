// Package sgs implements the serial schedule generation scheme.
package sgs

import (
	"fmt"

	"github.com/kilianp07/rcpsp/core/activitylist"
	"github.com/kilianp07/rcpsp/core/schedule"
)

// Build places the activities of al one at a time, in list order, at the
// earliest finish event at or after their precedence bound where they fit.
func Build(al *activitylist.ActivityList) (*schedule.Schedule, error) {
	s := schedule.New(al.Graph())
	for i := 0; i < al.Len(); i++ {
		a := al.At(i)
		if err := place(s, a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func place(s *schedule.Schedule, a int) error {
	est := s.EarliestPrecedenceStart(a)
	if s.Len() == 0 {
		return s.Add(a, est, false)
	}
	for _, t := range s.FinishEvents() {
		if t < est {
			continue
		}
		if s.CanPlace(a, t) {
			return s.Add(a, t, true)
		}
	}
	return fmt.Errorf("sgs: no feasible start for activity %d: %w", a, schedule.ErrConstraintViolation)
}
