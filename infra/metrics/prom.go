package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/rcpsp/core/metrics"
)

// PromSink records optimizer statistics in Prometheus metrics.
type PromSink struct {
	best        *prometheus.GaugeVec
	mean        *prometheus.GaugeVec
	generations *prometheus.CounterVec
	schedules   *prometheus.GaugeVec
	runs        *prometheus.HistogramVec
}

// NewPromSink registers solver metrics on the default Prometheus registerer.
// The exporter is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := []string{"instance", "run_id"}
	best := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "garth_best_makespan",
		Help: "Best makespan of the latest evaluated generation",
	}, labels)
	mean := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "garth_mean_makespan",
		Help: "Mean makespan of the latest evaluated generation",
	}, labels)
	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "garth_generations_total",
		Help: "Number of evaluated generations",
	}, labels)
	schedules := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "garth_schedules_generated",
		Help: "Schedules generated so far by a run",
	}, labels)
	runs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "garth_run_duration_seconds",
		Help:    "Wall time of finished optimizer runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"instance"})

	var err error
	if best, err = register(reg, best); err != nil {
		return nil, err
	}
	if mean, err = register(reg, mean); err != nil {
		return nil, err
	}
	if generations, err = register(reg, generations); err != nil {
		return nil, err
	}
	if schedules, err = register(reg, schedules); err != nil {
		return nil, err
	}
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	return &PromSink{best: best, mean: mean, generations: generations, schedules: schedules, runs: runs}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordGeneration updates the generation gauges and counter.
func (s *PromSink) RecordGeneration(st coremetrics.GenerationStats) error {
	s.best.WithLabelValues(st.Instance, st.RunID).Set(float64(st.BestMakespan))
	s.mean.WithLabelValues(st.Instance, st.RunID).Set(st.MeanMakespan)
	s.generations.WithLabelValues(st.Instance, st.RunID).Inc()
	s.schedules.WithLabelValues(st.Instance, st.RunID).Set(float64(st.SchedulesGenerated))
	return nil
}

// RecordRun observes the run duration.
func (s *PromSink) RecordRun(st coremetrics.RunStats) error {
	s.runs.WithLabelValues(st.Instance).Observe(st.Duration.Seconds())
	return nil
}
