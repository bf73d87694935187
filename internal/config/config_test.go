package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingDefaultsQuietly(t *testing.T) {
	// Run from an empty directory so no treescope.toml is found.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestLoadExplicitMissingFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("explicit missing config should error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treescope.toml")
	content := `
[data]
tree = "tree.json"

[cache]
redis = "localhost:6379"

[store]
uri = "mongodb://localhost:27017"
database = "tol"

[server]
addr = ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Data.Tree != "tree.json" {
		t.Errorf("Data.Tree = %q", cfg.Data.Tree)
	}
	if cfg.Cache.Redis != "localhost:6379" {
		t.Errorf("Cache.Redis = %q", cfg.Cache.Redis)
	}
	if cfg.Store.Database != "tol" {
		t.Errorf("Store.Database = %q", cfg.Store.Database)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treescope.toml")
	if err := os.WriteFile(path, []byte("[data\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed TOML should error")
	}
}

func TestCacheDir(t *testing.T) {
	cfg := Config{Cache: Cache{Dir: "/tmp/custom"}}
	if got := cfg.CacheDir(); got != "/tmp/custom" {
		t.Errorf("CacheDir = %q", got)
	}
	if got := (Config{}).CacheDir(); got == "" {
		t.Error("default cache dir should not be empty")
	}
}
