package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != StorageBackendMemory {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, StorageBackendMemory)
	}
	if cfg.PlanDag.MaxNodes != 5000 {
		t.Errorf("PlanDag.MaxNodes = %d, want 5000", cfg.PlanDag.MaxNodes)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layercake.toml")
	contents := `
[storage]
backend = "mongo"
mongo_uri = "mongodb://localhost:27017"
mongo_database = "layercake"

[cache]
backend = "redis"
redis_url = "redis://localhost:6379/0"

[plan_dag]
max_nodes = 100
max_edges = 400
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != StorageBackendMongo {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, StorageBackendMongo)
	}
	if cfg.Storage.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("Storage.MongoURI = %q", cfg.Storage.MongoURI)
	}
	if cfg.Cache.Backend != CacheBackendRedis {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, CacheBackendRedis)
	}
	if cfg.PlanDag.MaxNodes != 100 || cfg.PlanDag.MaxEdges != 400 {
		t.Errorf("PlanDag = %+v, want MaxNodes=100 MaxEdges=400", cfg.PlanDag)
	}
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed TOML, got nil")
	}
}
