package metrics

import "time"

// GenerationStats summarizes one evaluated population.
type GenerationStats struct {
	RunID              string
	Instance           string
	Generation         int
	BestMakespan       int
	MeanMakespan       float64
	StdDevMakespan     float64
	SchedulesGenerated int
	Time               time.Time
}

// RunStats is the outcome of a finished optimizer run.
type RunStats struct {
	RunID              string
	Instance           string
	Makespan           int
	Generations        int
	SchedulesGenerated int
	Duration           time.Duration
	Time               time.Time
}

// MetricsSink records generation statistics for observability purposes.
type MetricsSink interface {
	RecordGeneration(GenerationStats) error
}

// RunRecorder records finished runs.
type RunRecorder interface {
	RecordRun(RunStats) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordGeneration(GenerationStats) error { return nil }
func (NopSink) RecordRun(RunStats) error               { return nil }
