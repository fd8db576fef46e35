package results

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// JSONLStore keeps one JSON encoded RunResult per line. Appends and
// queries are serialized through a mutex; the file is reopened on every
// call so other processes may append between runs.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONLStore creates path when it does not exist yet.
func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open results file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close results file: %w", err)
	}
	return &JSONLStore{path: path}, nil
}

// Append writes r as a single line. A failed close is reported since the
// line may not have reached the disk.
func (s *JSONLStore) Append(ctx context.Context, r RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open results file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append result: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close results file: %w", err)
	}
	return nil
}

// Query scans the file and skips lines that do not decode.
func (s *JSONLStore) Query(ctx context.Context, q Query) ([]RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var res []RunResult
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var r RunResult
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		if !q.Matches(r) {
			continue
		}
		res = append(res, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close is a no-op; no handle outlives a call.
func (s *JSONLStore) Close() error { return nil }
