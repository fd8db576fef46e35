package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// keepBest stores ARGV into the best hash when the makespan improves on it.
var keepBest = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'makespan')
if not cur or tonumber(ARGV[1]) < tonumber(cur) then
  redis.call('HSET', KEYS[1], 'makespan', ARGV[1], 'run_id', ARGV[2], 'record', ARGV[3])
  return 1
end
return 0
`)

// RedisStore keeps every result in a list per (file, run id) and the best
// result per file in a hash.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects lazily to the server at addr.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func runKey(file, runID string) string { return "test_run:" + file + ":" + runID }

func bestKey(file string) string { return "best:" + file }

// Append pushes r onto its run list and updates the per-file best.
func (s *RedisStore) Append(ctx context.Context, r RunResult) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.rdb.RPush(ctx, runKey(r.File, r.RunID), b).Err(); err != nil {
		return fmt.Errorf("push result: %w", err)
	}
	if err := keepBest.Run(ctx, s.rdb, []string{bestKey(r.File)}, r.Makespan, r.RunID, b).Err(); err != nil {
		return fmt.Errorf("update best: %w", err)
	}
	return nil
}

// Query reads the matching run lists. Without both file and run id the
// keyspace is scanned.
func (s *RedisStore) Query(ctx context.Context, q Query) ([]RunResult, error) {
	var keys []string
	if q.File != "" && q.RunID != "" {
		keys = []string{runKey(q.File, q.RunID)}
	} else {
		pattern := runKey(orWildcard(q.File), orWildcard(q.RunID))
		iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("scan runs: %w", err)
		}
	}
	var res []RunResult
	for _, k := range keys {
		items, err := s.rdb.LRange(ctx, k, 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", k, err)
		}
		for _, it := range items {
			var r RunResult
			if err := json.Unmarshal([]byte(it), &r); err != nil {
				return nil, fmt.Errorf("unmarshal result: %w", err)
			}
			if q.Matches(r) {
				res = append(res, r)
			}
		}
	}
	return res, nil
}

// BestFor returns the best result recorded for file across all runs.
func (s *RedisStore) BestFor(ctx context.Context, file string) (RunResult, error) {
	data, err := s.rdb.HGet(ctx, bestKey(file), "record").Result()
	if errors.Is(err, redis.Nil) {
		return RunResult{}, ErrNoResults
	}
	if err != nil {
		return RunResult{}, err
	}
	var r RunResult
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return RunResult{}, fmt.Errorf("unmarshal result: %w", err)
	}
	return r, nil
}

// Close closes the client.
func (s *RedisStore) Close() error { return s.rdb.Close() }

func orWildcard(s string) string {
	if s == "" {
		return "*"
	}
	return strings.NewReplacer("*", `\*`, "?", `\?`, "[", `\[`).Replace(s)
}
