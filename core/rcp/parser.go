// Package rcp reads RCPSP instances in the plain-text RCP format used by
// PSPLIB. The first line holds the activity and resource counts, the second
// the resource capacities, then one line per activity with its duration,
// demands, successor count and 1-based successor ids.
package rcp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/rcpsp/core/model"
)

// ErrMalformed is returned when the input does not match the RCP format.
var ErrMalformed = errors.New("malformed rcp input")

// Load opens and parses the file at path.
func Load(path string) (*model.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse reads a problem from r. Blank lines are ignored.
func Parse(r io.Reader) (*model.Problem, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: expected header and capacity lines", ErrMalformed)
	}
	header := lines[0]
	if len(header.values) != 2 {
		return nil, fmt.Errorf("%w: line %d: header needs 2 integers, got %d", ErrMalformed, header.number, len(header.values))
	}
	p := &model.Problem{NumActivities: header.values[0], NumResources: header.values[1]}
	if p.NumActivities <= 0 || p.NumResources < 0 {
		return nil, fmt.Errorf("%w: line %d: invalid counts %d %d", ErrMalformed, header.number, p.NumActivities, p.NumResources)
	}

	capLine := lines[1]
	if len(capLine.values) != p.NumResources {
		return nil, fmt.Errorf("%w: line %d: expected %d capacities, got %d", ErrMalformed, capLine.number, p.NumResources, len(capLine.values))
	}
	p.Capacities = capLine.values

	body := lines[2:]
	if len(body) != p.NumActivities {
		return nil, fmt.Errorf("%w: expected %d activity lines, got %d", ErrMalformed, p.NumActivities, len(body))
	}
	p.Durations = make([]int, p.NumActivities)
	p.Demands = make([][]int, p.NumActivities)
	for a, l := range body {
		if err := parseActivity(p, a, l); err != nil {
			return nil, err
		}
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}

func parseActivity(p *model.Problem, a int, l line) error {
	m := p.NumResources
	if len(l.values) < m+2 {
		return fmt.Errorf("%w: line %d: activity %d needs at least %d integers", ErrMalformed, l.number, a, m+2)
	}
	p.Durations[a] = l.values[0]
	p.Demands[a] = l.values[1 : m+1]
	k := l.values[m+1]
	succ := l.values[m+2:]
	if k != len(succ) {
		return fmt.Errorf("%w: line %d: activity %d declares %d successors, lists %d", ErrMalformed, l.number, a, k, len(succ))
	}
	for _, s := range succ {
		if s < 1 || s > p.NumActivities {
			return fmt.Errorf("%w: line %d: successor %d out of range", ErrMalformed, l.number, s)
		}
		p.Edges = append(p.Edges, model.Edge{From: a, To: s - 1})
	}
	return nil
}

type line struct {
	number int
	values []int
}

func readLines(r io.Reader) ([]line, error) {
	var out []line
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		vals := make([]int, len(fields))
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q is not an integer", ErrMalformed, n, f)
			}
			vals[i] = v
		}
		out = append(out, line{number: n, values: vals})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
