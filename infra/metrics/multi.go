package metrics

import coremetrics "github.com/kilianp07/rcpsp/core/metrics"

// MultiSink fans statistics out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordGeneration forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordGeneration(st coremetrics.GenerationStats) error {
	for _, s := range m.Sinks {
		if err := s.RecordGeneration(st); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun forwards run outcomes to the sinks that record them.
func (m *MultiSink) RecordRun(st coremetrics.RunStats) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.RunRecorder); ok {
			if err := rec.RecordRun(st); err != nil {
				return err
			}
		}
	}
	return nil
}

// Combine returns NopSink, the single sink, or a MultiSink depending on how
// many sinks are given.
func Combine(sinks ...coremetrics.MetricsSink) coremetrics.MetricsSink {
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}
	case 1:
		return sinks[0]
	default:
		return NewMultiSink(sinks...)
	}
}
