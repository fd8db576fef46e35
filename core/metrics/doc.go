// Package metrics defines the sinks that receive solver statistics. Sinks
// like PromSink and InfluxSink live in infra/metrics and can be combined
// with NewMultiSink. Optimizers report one GenerationStats per generation
// and sinks that implement RunRecorder also get the outcome of each run.
package metrics
