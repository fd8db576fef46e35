// Package optimizer implements GARTH, a generational genetic algorithm over
// activity lists whose mutation operator is steered by the relationship
// tables of the schedules evaluated so far.
package optimizer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/rcpsp/core/activitylist"
	"github.com/kilianp07/rcpsp/core/logger"
	"github.com/kilianp07/rcpsp/core/metrics"
	"github.com/kilianp07/rcpsp/core/project"
	"github.com/kilianp07/rcpsp/core/relationship"
	"github.com/kilianp07/rcpsp/core/schedule"
	"github.com/kilianp07/rcpsp/core/sgs"
	"github.com/kilianp07/rcpsp/internal/eventbus"
)

// crossoverFromNext is the probability of drawing the first crossover
// parent among the individuals already bred this generation.
const crossoverFromNext = 0.3

// schedulesPerEvaluation counts the built schedule and its justification.
const schedulesPerEvaluation = 2

type individual struct {
	list     *activitylist.ActivityList
	sched    *schedule.Schedule
	makespan int
}

// Result is the plain outcome of a run.
type Result struct {
	Makespan int `json:"makespan"`
	// Schedule is the serialized activity order of the best schedule.
	Schedule           []int `json:"schedule"`
	StartTimes         []int `json:"start_times"`
	Generations        int   `json:"generations"`
	SchedulesGenerated int   `json:"schedules_generated"`
}

// Option customizes an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(o *Optimizer) { o.log = l } }

// WithMetrics sets the sink receiving generation and run statistics.
func WithMetrics(s metrics.MetricsSink) Option { return func(o *Optimizer) { o.sink = s } }

// WithEvents publishes generation statistics on bus.
func WithEvents(bus *eventbus.TypedBus[metrics.GenerationStats]) Option {
	return func(o *Optimizer) { o.events = bus }
}

// WithRunID tags statistics with a run identifier.
func WithRunID(id string) Option { return func(o *Optimizer) { o.runID = id } }

// WithInstance tags statistics with the problem instance name.
func WithInstance(name string) Option { return func(o *Optimizer) { o.instance = name } }

// Optimizer runs GARTH on one project. It is not safe for concurrent use;
// independent runs use independent optimizers sharing the graph.
type Optimizer struct {
	graph *project.Graph
	cfg   Config
	rng   *rand.Rand

	log      logger.Logger
	sink     metrics.MetricsSink
	events   *eventbus.TypedBus[metrics.GenerationStats]
	runID    string
	instance string

	rt         *relationship.System
	population []individual
	evaluated  bool
	generation int
	generated  int
	best       individual
}

// New validates cfg and draws the initial population. A nil rng is seeded
// from cfg.Seed.
func New(g *project.Graph, cfg Config, rng *rand.Rand, opts ...Option) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	o := &Optimizer{
		graph: g,
		cfg:   cfg,
		rng:   rng,
		log:   logger.Nop{},
		sink:  metrics.NopSink{},
		rt:    relationship.NewSystem(g.NumActivities()),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.population = make([]individual, cfg.PopulationSize)
	for i := range o.population {
		o.population[i].list = activitylist.Random(g, o.rng)
	}
	return o, nil
}

// Generation returns the number of evaluated generations.
func (o *Optimizer) Generation() int { return o.generation }

// SchedulesGenerated returns the budget consumed so far.
func (o *Optimizer) SchedulesGenerated() int { return o.generated }

// Relationships exposes the relationship tables accumulated so far.
func (o *Optimizer) Relationships() *relationship.System { return o.rt }

// Best returns the shortest schedule found so far, or nil before the first
// evaluation.
func (o *Optimizer) Best() *schedule.Schedule { return o.best.sched }

// Population returns the current activity orders, best first once
// evaluated.
func (o *Optimizer) Population() [][]int {
	out := make([][]int, len(o.population))
	for i, ind := range o.population {
		out[i] = ind.list.Order()
	}
	return out
}

// Step evaluates the initial population on the first call and breeds and
// evaluates a new generation on later calls.
func (o *Optimizer) Step(ctx context.Context) error {
	if o.evaluated {
		next, err := o.breed()
		if err != nil {
			return err
		}
		o.population = next
	}
	if err := o.evaluate(ctx); err != nil {
		return err
	}
	o.evaluated = true
	o.generation++
	o.report()
	return nil
}

// Run steps until the schedule budget is spent and returns the best result.
// Cancellation is checked between generations.
func (o *Optimizer) Run(ctx context.Context) (Result, error) {
	started := time.Now()
	for !o.evaluated || o.generated < o.cfg.ScheduleLimit {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := o.Step(ctx); err != nil {
			return Result{}, err
		}
	}
	res, err := o.Result()
	if err != nil {
		return Result{}, err
	}
	o.log.Infof("run finished: makespan %d after %d generations and %d schedules in %s",
		res.Makespan, res.Generations, res.SchedulesGenerated, time.Since(started).Round(time.Millisecond))
	if rec, ok := o.sink.(metrics.RunRecorder); ok {
		err := rec.RecordRun(metrics.RunStats{
			RunID:              o.runID,
			Instance:           o.instance,
			Makespan:           res.Makespan,
			Generations:        res.Generations,
			SchedulesGenerated: res.SchedulesGenerated,
			Duration:           time.Since(started),
			Time:               time.Now(),
		})
		if err != nil {
			o.log.Errorf("record run: %v", err)
		}
	}
	return res, nil
}

// Result packages the best schedule found so far. The best is tracked
// across every evaluated generation, so it can be better than anything left
// in the final population.
func (o *Optimizer) Result() (Result, error) {
	if o.best.sched == nil {
		return Result{}, fmt.Errorf("optimizer: nothing evaluated yet")
	}
	return Result{
		Makespan:           o.best.makespan,
		Schedule:           o.best.list.Order(),
		StartTimes:         o.best.sched.StartTimes(),
		Generations:        o.generation,
		SchedulesGenerated: o.generated,
	}, nil
}

// evaluate builds and justifies every individual, then feeds the schedules
// to the relationship tables in population order and sorts the population.
// The tables see the justified schedules, not the raw SSGS output.
func (o *Optimizer) evaluate(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	if o.cfg.Parallelism > 1 {
		eg.SetLimit(o.cfg.Parallelism)
	} else {
		eg.SetLimit(1)
	}
	for i := range o.population {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return o.evaluateOne(&o.population[i])
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, ind := range o.population {
		o.rt.Update(ind.sched)
		o.generated += schedulesPerEvaluation
	}
	slices.SortStableFunc(o.population, func(a, b individual) int { return a.makespan - b.makespan })
	if o.best.sched == nil || o.population[0].makespan < o.best.makespan {
		o.best = o.population[0]
	}
	return nil
}

func (o *Optimizer) evaluateOne(ind *individual) error {
	s, err := sgs.Build(ind.list)
	if err != nil {
		return fmt.Errorf("build schedule: %w", err)
	}
	if o.cfg.Justification == JustifyDouble {
		err = s.DoubleJustify()
	} else {
		err = s.Shift(schedule.RightShift)
	}
	if err != nil {
		return fmt.Errorf("justify schedule: %w", err)
	}
	list, err := s.Serialize()
	if err != nil {
		return fmt.Errorf("serialize schedule: %w", err)
	}
	ind.list = list
	ind.sched = s
	ind.makespan = s.Makespan()
	return nil
}

// breed assembles the next population in slot order: copies of the best,
// fresh random lists, mutants and crossover children.
func (o *Optimizer) breed() ([]individual, error) {
	sl := o.cfg.slots()
	next := make([]individual, 0, o.cfg.PopulationSize)

	for i := 0; i < sl.copies && i < len(o.population); i++ {
		next = append(next, individual{list: o.population[i].list.Clone()})
	}
	for i := 0; i < sl.fresh; i++ {
		next = append(next, individual{list: activitylist.Random(o.graph, o.rng)})
	}
	next = append(next, o.mutants(sl.mutants)...)

	bred := len(next)
	n := o.graph.NumActivities()
	for i := 0; i < sl.children; i++ {
		var p1 *activitylist.ActivityList
		if bred > 0 && o.rng.Float64() <= crossoverFromNext {
			p1 = next[o.rng.IntN(bred)].list
		} else {
			p1 = o.population[o.rng.IntN(len(o.population))].list
		}
		p2 := o.population[o.rng.IntN(len(o.population))].list
		c1 := o.rng.IntN(n)
		c2 := c1 + o.rng.IntN(n-c1)
		child, err := p1.Crossover(p2, c1, c2)
		if err != nil {
			return nil, fmt.Errorf("crossover: %w", err)
		}
		next = append(next, individual{list: child})
	}
	return next, nil
}

// mutants clones count distinct individuals and shifts every activity the
// relationship tables currently flag, each in a random direction.
func (o *Optimizer) mutants(count int) []individual {
	count = min(count, len(o.population))
	if count == 0 {
		return nil
	}
	flagged := o.rt.ExcludingActivities()
	picks := o.rng.Perm(len(o.population))[:count]
	out := make([]individual, 0, count)
	for _, p := range picks {
		l := o.population[p].list.Clone()
		for _, a := range flagged {
			dir := activitylist.Left
			if o.rng.IntN(2) == 1 {
				dir = activitylist.Right
			}
			l.Shift(a, dir, o.cfg.MutationDistance)
		}
		out = append(out, individual{list: l})
	}
	return out
}

func (o *Optimizer) report() {
	values := make([]float64, len(o.population))
	for i, ind := range o.population {
		values[i] = float64(ind.makespan)
	}
	var mean, std float64
	if len(values) > 1 {
		mean, std = stat.MeanStdDev(values, nil)
	} else {
		mean = values[0]
	}
	st := metrics.GenerationStats{
		RunID:              o.runID,
		Instance:           o.instance,
		Generation:         o.generation,
		BestMakespan:       o.population[0].makespan,
		MeanMakespan:       mean,
		StdDevMakespan:     std,
		SchedulesGenerated: o.generated,
		Time:               time.Now(),
	}
	o.log.Debugw("generation evaluated", map[string]any{
		"generation": st.Generation,
		"best":       st.BestMakespan,
		"mean":       st.MeanMakespan,
		"schedules":  st.SchedulesGenerated,
	})
	if err := o.sink.RecordGeneration(st); err != nil {
		o.log.Errorf("record generation: %v", err)
	}
	if o.events != nil {
		o.events.Publish(st)
	}
}
