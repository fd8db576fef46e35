package results

import "fmt"

// Supported store backends.
const (
	BackendNone   = "none"
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config selects and configures the result store.
type Config struct {
	Backend       string `json:"backend"`
	Path          string `json:"path"`
	RedisAddr     string `json:"redis_addr"`
	RedisDB       int    `json:"redis_db"`
	RedisPassword string `json:"redis_password"`
}

// SetDefaults fills the backend and its location.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendNone
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendJSONL:
			c.Path = "results.jsonl"
		case BackendSQLite:
			c.Path = "results.db"
		}
	}
	if c.Backend == BackendRedis && c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNone, BackendJSONL, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown results backend %q", c.Backend)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("redis_db must not be negative")
	}
	return nil
}

// Open builds the store selected by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendNone, "":
		return NopStore{}, nil
	case BackendJSONL:
		s, err := NewJSONLStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	default:
		return nil, fmt.Errorf("unknown results backend %q", cfg.Backend)
	}
}
