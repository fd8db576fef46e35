package optimizer

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Validate and New for unusable settings.
var ErrInvalidConfig = errors.New("invalid optimizer config")

// Justification modes applied to every built schedule.
const (
	JustifyRight  = "right"
	JustifyDouble = "double"
)

// Config holds the genetic algorithm parameters.
type Config struct {
	PopulationSize int     `json:"population_size"`
	CopyRatio      float64 `json:"copy_ratio"`
	NewRatio       float64 `json:"new_ratio"`
	MutateRatio    float64 `json:"mutate_ratio"`
	CrossoverRatio float64 `json:"crossover_ratio"`
	// MutationDistance is the number of swaps attempted per shifted activity.
	MutationDistance int `json:"mutation_distance"`
	// ScheduleLimit stops the run once this many schedules were generated.
	ScheduleLimit int `json:"schedule_limit"`
	// Parallelism bounds concurrent evaluations. Zero or one is sequential.
	Parallelism int `json:"parallelism"`
	// Seed feeds the PCG source when no generator is injected. Zero picks a
	// random seed.
	Seed          uint64 `json:"seed"`
	Justification string `json:"justification"`
}

// DefaultConfig returns the reference parameter set.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	c.CopyRatio = 0.1
	c.NewRatio = 0
	c.MutateRatio = 0.2
	c.CrossoverRatio = 0.7
	return c
}

// SetDefaults fills zero-valued sizes and modes. Ratios are left alone
// since zero is a meaningful value for each of them.
func (c *Config) SetDefaults() {
	if c.PopulationSize == 0 {
		c.PopulationSize = 100
	}
	if c.MutationDistance == 0 {
		c.MutationDistance = 10000
	}
	if c.ScheduleLimit == 0 {
		c.ScheduleLimit = 5000
	}
	if c.Justification == "" {
		c.Justification = JustifyRight
	}
}

// Validate checks ranges.
func (c Config) Validate() error {
	if c.PopulationSize < 1 {
		return fmt.Errorf("%w: population_size must be positive", ErrInvalidConfig)
	}
	ratios := map[string]float64{
		"copy_ratio":      c.CopyRatio,
		"new_ratio":       c.NewRatio,
		"mutate_ratio":    c.MutateRatio,
		"crossover_ratio": c.CrossoverRatio,
	}
	sum := 0.0
	for name, r := range ratios {
		if r < 0 || r > 1 {
			return fmt.Errorf("%w: %s must be within [0,1]", ErrInvalidConfig, name)
		}
		sum += r
	}
	if sum > 1+1e-9 {
		return fmt.Errorf("%w: ratios sum to %.3f", ErrInvalidConfig, sum)
	}
	if c.MutationDistance < 0 {
		return fmt.Errorf("%w: mutation_distance must not be negative", ErrInvalidConfig)
	}
	if c.ScheduleLimit < 1 {
		return fmt.Errorf("%w: schedule_limit must be positive", ErrInvalidConfig)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism must not be negative", ErrInvalidConfig)
	}
	if c.Justification != JustifyRight && c.Justification != JustifyDouble {
		return fmt.Errorf("%w: unknown justification %q", ErrInvalidConfig, c.Justification)
	}
	return nil
}

type slots struct {
	copies, fresh, mutants, children int
}

// slots splits the population the way each generation is bred. Slots left
// over by rounding or by ratios summing below one get fresh individuals.
func (c Config) slots() slots {
	p := float64(c.PopulationSize)
	s := slots{
		copies:   int(p * c.CopyRatio),
		fresh:    int(p * c.NewRatio),
		mutants:  int(p * c.MutateRatio),
		children: int(p * c.CrossoverRatio),
	}
	if rest := c.PopulationSize - s.copies - s.fresh - s.mutants - s.children; rest > 0 {
		s.fresh += rest
	}
	return s
}
