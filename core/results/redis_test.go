package results

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRedisStore runs against a real Redis server.
func TestRedisStore(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	store := NewRedisStore(fmt.Sprintf("%s:%s", host, port.Port()), "", 0)
	defer func() { _ = store.Close() }()

	if _, err := store.BestFor(ctx, "j30"); !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}

	now := time.Now().UTC()
	for _, r := range []RunResult{
		sample("j30", "a", 45, now),
		sample("j30", "a", 43, now),
		sample("j30", "b", 44, now),
		sample("j60", "a", 70, now),
	} {
		if err := store.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	runA, err := store.Query(ctx, Query{File: "j30", RunID: "a"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(runA) != 2 || runA[0].Makespan != 45 {
		t.Fatalf("unexpected run a results: %+v", runA)
	}
	j30, err := store.Query(ctx, Query{File: "j30"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(j30) != 3 {
		t.Fatalf("expected 3 j30 results, got %d", len(j30))
	}
	best, err := store.BestFor(ctx, "j30")
	if err != nil {
		t.Fatalf("best: %v", err)
	}
	if best.Makespan != 43 || best.RunID != "a" {
		t.Fatalf("unexpected best: %+v", best)
	}
}
