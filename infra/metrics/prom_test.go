package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/rcpsp/core/metrics"
)

func TestPromSinkRecordGeneration(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	st := coremetrics.GenerationStats{RunID: "r", Instance: "J301_1", BestMakespan: 45, MeanMakespan: 50.5, SchedulesGenerated: 200}
	require.NoError(t, sink.RecordGeneration(st))
	require.NoError(t, sink.RecordGeneration(st))
	assert.Equal(t, 45.0, testutil.ToFloat64(sink.best.WithLabelValues("J301_1", "r")))
	assert.Equal(t, 50.5, testutil.ToFloat64(sink.mean.WithLabelValues("J301_1", "r")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.generations.WithLabelValues("J301_1", "r")))

	require.NoError(t, sink.RecordRun(coremetrics.RunStats{Instance: "J301_1", Duration: time.Second}))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.runs))
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, first.RecordGeneration(coremetrics.GenerationStats{Instance: "a", RunID: "b"}))
	require.NoError(t, second.RecordGeneration(coremetrics.GenerationStats{Instance: "a", RunID: "b"}))
	assert.Equal(t, 2.0, testutil.ToFloat64(first.generations.WithLabelValues("a", "b")))
}

func TestStartPromServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordGeneration(coremetrics.GenerationStats{Instance: "J301_1", RunID: "x", BestMakespan: 44}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- StartPromServerWithGatherer(ctx, addr, reg) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.True(t, strings.Contains(body, `garth_best_makespan{instance="J301_1",run_id="x"} 44`))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatalf("server did not stop")
	}
}
