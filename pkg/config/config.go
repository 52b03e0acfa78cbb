// Package config loads the ambient TOML configuration shared by the CLI
// and any long-running service: storage backend selection, cache backend
// selection, and the plan DAG's soft node/edge limits.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	lcerrors "github.com/layercake-run/layercake/pkg/errors"
)

// StorageBackend selects which storage.* implementation backs a run.
type StorageBackend string

const (
	StorageBackendMemory  StorageBackend = "memory"
	StorageBackendMongo   StorageBackend = "mongo"
)

// CacheBackend selects which cache.Cache implementation backs a run.
type CacheBackend string

const (
	CacheBackendNull  CacheBackend = "null"
	CacheBackendFile  CacheBackend = "file"
	CacheBackendRedis CacheBackend = "redis"
)

// StorageConfig configures the persistence backend.
type StorageConfig struct {
	Backend StorageBackend `toml:"backend"`
	MongoURI string        `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
}

// CacheConfig configures the look-aside cache backend.
type CacheConfig struct {
	Backend  CacheBackend `toml:"backend"`
	Dir      string       `toml:"dir"`
	RedisURL string       `toml:"redis_url"`
}

// PlanDagConfig configures the plan DAG's soft per-plan limits. A zero
// value means "no limit" and is left to the caller to interpret.
type PlanDagConfig struct {
	MaxNodes int `toml:"max_nodes"`
	MaxEdges int `toml:"max_edges"`
}

// Config is the full ambient configuration tree.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Cache   CacheConfig   `toml:"cache"`
	PlanDag PlanDagConfig `toml:"plan_dag"`
}

// Default returns the configuration used when no file is found: an
// in-memory store, no cache, and the spec's default soft limits.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Backend: StorageBackendMemory},
		Cache:   CacheConfig{Backend: CacheBackendNull},
		PlanDag: PlanDagConfig{MaxNodes: 5000, MaxEdges: 20000},
	}
}

// Load reads and parses a TOML configuration file at path, layering it
// over Default(). A missing file is not an error; Load returns the
// default configuration unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeInternal, err, "failed to read config file %s", path)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, lcerrors.Wrap(lcerrors.ErrCodeValidation, err, "failed to parse config file %s", path)
	}
	return cfg, nil
}
