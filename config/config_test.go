package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/rcpsp/core/optimizer"
	"github.com/kilianp07/rcpsp/core/results"
)

func write(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, "config.yaml", `optimizer:
  population_size: 40
  mutate_ratio: 0.3
  crossover_ratio: 0.6
  schedule_limit: 2000
  parallelism: 4
  seed: 7
  justification: double
results:
  backend: sqlite
  path: runs.db
metrics:
  prometheus_enabled: true
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  qos: 1
batch:
  runs: 8
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"population_size", cfg.Optimizer.PopulationSize, 40},
		{"copy_ratio default", cfg.Optimizer.CopyRatio, 0.1},
		{"mutate_ratio", cfg.Optimizer.MutateRatio, 0.3},
		{"crossover_ratio", cfg.Optimizer.CrossoverRatio, 0.6},
		{"mutation_distance default", cfg.Optimizer.MutationDistance, 10000},
		{"schedule_limit", cfg.Optimizer.ScheduleLimit, 2000},
		{"parallelism", cfg.Optimizer.Parallelism, 4},
		{"seed", cfg.Optimizer.Seed, uint64(7)},
		{"justification", cfg.Optimizer.Justification, optimizer.JustifyDouble},
		{"results.backend", cfg.Results.Backend, results.BackendSQLite},
		{"results.path", cfg.Results.Path, "runs.db"},
		{"prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus_addr default", cfg.Metrics.PrometheusAddr, ":9090"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"qos", cfg.MQTT.QoS, byte(1)},
		{"topic_prefix default", cfg.MQTT.TopicPrefix, "rcpsp/results"},
		{"batch.runs", cfg.Batch.Runs, 8},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	path := write(t, "config.json", `{"optimizer": {"population_size": 12}, "results": {"backend": "jsonl"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Optimizer.PopulationSize != 12 {
		t.Fatalf("population_size = %d", cfg.Optimizer.PopulationSize)
	}
	if cfg.Results.Path != "results.jsonl" {
		t.Fatalf("jsonl path default not applied: %q", cfg.Results.Path)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	want := Default()
	if cfg.Optimizer != want.Optimizer {
		t.Fatalf("optimizer defaults differ: %+v vs %+v", cfg.Optimizer, want.Optimizer)
	}
	if cfg.Results.Backend != results.BackendNone || cfg.MQTT.Enabled() {
		t.Fatalf("optional backends should be disabled by default")
	}
	if cfg.Batch.Runs != 4 {
		t.Fatalf("batch runs default = %d", cfg.Batch.Runs)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("RCPSP_OPTIMIZER__POPULATION_SIZE", "30")
	t.Setenv("RCPSP_OPTIMIZER__SEED", "99")
	t.Setenv("RCPSP_RESULTS__BACKEND", "jsonl")
	path := write(t, "config.yaml", "optimizer:\n  population_size: 10\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Optimizer.PopulationSize != 30 {
		t.Fatalf("env override not applied: %d", cfg.Optimizer.PopulationSize)
	}
	if cfg.Optimizer.Seed != 99 {
		t.Fatalf("seed override not applied: %d", cfg.Optimizer.Seed)
	}
	if cfg.Results.Backend != results.BackendJSONL {
		t.Fatalf("backend override not applied: %s", cfg.Results.Backend)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := write(t, "config.yaml", "optimizer:\n  copy_ratio: 0.9\n  crossover_ratio: 0.9\n")
	if _, err := Load(path); !errors.Is(err, optimizer.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := Load(write(t, "config.toml", "")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
	path = write(t, "config.yaml", "results:\n  backend: etcd\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}
