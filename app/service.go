// Package app wires configuration into solver runs: it loads instances,
// runs the optimizer and hands results to the configured sinks, store and
// publisher.
package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/rcpsp/config"
	coremetrics "github.com/kilianp07/rcpsp/core/metrics"
	"github.com/kilianp07/rcpsp/core/optimizer"
	"github.com/kilianp07/rcpsp/core/project"
	"github.com/kilianp07/rcpsp/core/rcp"
	"github.com/kilianp07/rcpsp/core/results"
	"github.com/kilianp07/rcpsp/core/schedule"
	"github.com/kilianp07/rcpsp/infra/logger"
	"github.com/kilianp07/rcpsp/infra/metrics"
	"github.com/kilianp07/rcpsp/infra/mqtt"
	"github.com/kilianp07/rcpsp/internal/eventbus"
)

// Solution is the outcome of a single run.
type Solution struct {
	Result   results.RunResult
	Schedule *schedule.Schedule
}

// BatchResult aggregates independent runs sharing one run id.
type BatchResult struct {
	RunID string
	Runs  []results.RunResult
	Best  results.RunResult
}

// Option customizes a Service.
type Option func(*Service)

// WithStore replaces the configured result store.
func WithStore(s results.Store) Option { return func(svc *Service) { svc.store = s } }

// WithPublisher replaces the configured result publisher.
func WithPublisher(p results.Publisher) Option { return func(svc *Service) { svc.pub = p } }

// WithSink replaces the configured metrics sinks.
func WithSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }

// Service runs the optimizer on problem files.
type Service struct {
	cfg     *config.Config
	log     logger.Logger
	sink    coremetrics.MetricsSink
	store   results.Store
	pub     results.Publisher
	events  *eventbus.TypedBus[coremetrics.GenerationStats]
	closers []func()
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	svc := &Service{
		cfg:    cfg,
		log:    logger.New("service"),
		events: eventbus.NewTypedBuffered[coremetrics.GenerationStats](64),
	}
	for _, opt := range opts {
		opt(svc)
	}

	if svc.sink == nil {
		var sinks []coremetrics.MetricsSink
		if cfg.Metrics.PrometheusEnabled {
			sink, err := metrics.NewPromSink()
			if err != nil {
				return nil, fmt.Errorf("prom sink: %w", err)
			}
			sinks = append(sinks, sink)
		}
		if cfg.Metrics.InfluxEnabled {
			sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics)
			if is, ok := sink.(*metrics.InfluxSink); ok {
				svc.closers = append(svc.closers, is.Close)
			}
			sinks = append(sinks, sink)
		}
		svc.sink = metrics.Combine(sinks...)
	}

	if svc.store == nil {
		store, err := results.Open(cfg.Results)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("results store: %w", err)
		}
		svc.store = store
	}

	if svc.pub == nil && cfg.MQTT.Enabled() {
		pub, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.pub = pub
		svc.closers = append(svc.closers, pub.Close)
	}
	return svc, nil
}

// Events exposes per-generation statistics of every run.
func (s *Service) Events() *eventbus.TypedBus[coremetrics.GenerationStats] { return s.events }

// Store returns the result store in use.
func (s *Service) Store() results.Store { return s.store }

// Start launches the Prometheus exporter when enabled. It returns
// immediately; the exporter stops with ctx.
func (s *Service) Start(ctx context.Context) {
	if !s.cfg.Metrics.PrometheusEnabled {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

func (s *Service) load(path string) (*project.Graph, error) {
	p, err := rcp.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	g, err := project.New(p)
	if err != nil {
		return nil, fmt.Errorf("build project %s: %w", path, err)
	}
	return g, nil
}

// Solve runs the optimizer once on the instance at path.
func (s *Service) Solve(ctx context.Context, path string) (Solution, error) {
	g, err := s.load(path)
	if err != nil {
		return Solution{}, err
	}
	runID := uuid.NewString()
	sol, err := s.run(ctx, g, filepath.Base(path), runID, s.cfg.Optimizer, nil)
	if err != nil {
		return Solution{}, err
	}
	s.persist(ctx, sol.Result)
	return sol, nil
}

// Batch runs the optimizer runs times on the instance at path under a
// shared run id and reports the best result. With a fixed seed, run i uses
// seed+i.
func (s *Service) Batch(ctx context.Context, path string, runs int) (BatchResult, error) {
	if runs < 1 {
		return BatchResult{}, fmt.Errorf("runs must be positive, got %d", runs)
	}
	g, err := s.load(path)
	if err != nil {
		return BatchResult{}, err
	}
	file := filepath.Base(path)
	runID := uuid.NewString()
	s.log.Infof("batch %s: %d runs on %s", runID, runs, file)

	out := make([]results.RunResult, runs)
	eg, ctx := errgroup.WithContext(ctx)
	if c := s.cfg.Batch.Concurrency; c > 0 {
		eg.SetLimit(c)
	}
	for i := range runs {
		eg.Go(func() error {
			var rng *rand.Rand
			if seed := s.cfg.Optimizer.Seed; seed != 0 {
				seed += uint64(i)
				rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			}
			sol, err := s.run(ctx, g, file, runID, s.cfg.Optimizer, rng)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			s.persist(ctx, sol.Result)
			out[i] = sol.Result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return BatchResult{}, err
	}
	best, err := results.Best(out)
	if err != nil {
		return BatchResult{}, err
	}
	s.log.Infof("batch %s: best makespan %d", runID, best.Makespan)
	return BatchResult{RunID: runID, Runs: out, Best: best}, nil
}

// Aggregate reads back the stored results for the problem file at path,
// restricted to runID when it is not empty, and returns them with the best
// one. results.ErrNoResults reports an empty selection.
func (s *Service) Aggregate(ctx context.Context, path, runID string) ([]results.RunResult, results.RunResult, error) {
	rs, err := s.store.Query(ctx, results.Query{File: filepath.Base(path), RunID: runID})
	if err != nil {
		return nil, results.RunResult{}, fmt.Errorf("query results: %w", err)
	}
	best, err := results.Best(rs)
	if err != nil {
		return nil, results.RunResult{}, err
	}
	return rs, best, nil
}

func (s *Service) run(ctx context.Context, g *project.Graph, file, runID string, cfg optimizer.Config, rng *rand.Rand) (Solution, error) {
	opt, err := optimizer.New(g, cfg, rng,
		optimizer.WithLogger(logger.New("optimizer")),
		optimizer.WithMetrics(s.sink),
		optimizer.WithEvents(s.events),
		optimizer.WithRunID(runID),
		optimizer.WithInstance(file),
	)
	if err != nil {
		return Solution{}, err
	}
	res, err := opt.Run(ctx)
	if err != nil {
		return Solution{}, err
	}
	return Solution{
		Result: results.RunResult{
			File:               file,
			RunID:              runID,
			Makespan:           res.Makespan,
			Schedule:           res.Schedule,
			StartTimes:         res.StartTimes,
			Generations:        res.Generations,
			SchedulesGenerated: res.SchedulesGenerated,
			Timestamp:          time.Now().UTC(),
		},
		Schedule: opt.Best(),
	}, nil
}

// persist stores and announces r. Failures are logged only.
func (s *Service) persist(ctx context.Context, r results.RunResult) {
	if err := s.store.Append(ctx, r); err != nil {
		s.log.Errorf("store result of run %s: %v", r.RunID, err)
	}
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, r); err != nil {
		s.log.Errorf("publish result of run %s: %v", r.RunID, err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.events.Close()
	for _, c := range s.closers {
		c()
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
