package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/rcpsp/core/metrics"
	"github.com/kilianp07/rcpsp/infra/logger"
)

// InfluxSink writes optimizer statistics to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordGeneration writes one garth_generation point.
func (s *InfluxSink) RecordGeneration(st coremetrics.GenerationStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("garth_generation").
		AddTag("instance", st.Instance).
		AddTag("run_id", st.RunID).
		AddField("generation", st.Generation).
		AddField("best_makespan", st.BestMakespan).
		AddField("mean_makespan", round3(st.MeanMakespan)).
		AddField("stddev_makespan", round3(st.StdDevMakespan)).
		AddField("schedules_generated", st.SchedulesGenerated).
		SetTime(st.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRun writes one garth_run point.
func (s *InfluxSink) RecordRun(st coremetrics.RunStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("garth_run").
		AddTag("instance", st.Instance).
		AddTag("run_id", st.RunID).
		AddField("makespan", st.Makespan).
		AddField("generations", st.Generations).
		AddField("schedules_generated", st.SchedulesGenerated).
		AddField("duration_ms", st.Duration.Milliseconds()).
		SetTime(st.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
