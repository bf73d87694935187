// Package config loads TreeScope's optional TOML configuration file.
//
// Every setting has a flag or environment default, so the file is never
// required: `treescope` works out of the box and the file only pins
// values for repeated use (data paths, a Redis cache, a Mongo catalog).
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/treescope/treescope/pkg/errors"
)

// DefaultFileName is the config file looked up in the current directory
// and under the user config dir when --config is not given.
const DefaultFileName = "treescope.toml"

// Config is the root of the TOML file.
type Config struct {
	Data   Data   `toml:"data"`
	Cache  Cache  `toml:"cache"`
	Store  Store  `toml:"store"`
	Server Server `toml:"server"`
}

// Data names the default input files.
type Data struct {
	// Tree is a tree document produced by `treescope import`.
	Tree string `toml:"tree"`

	// Nodes and Edges point at the raw CSV tables; they are used when
	// Tree is empty.
	Nodes string `toml:"nodes"`
	Edges string `toml:"edges"`
}

// Cache selects and tunes the pipeline cache backend.
type Cache struct {
	// Dir is the file cache root. Empty means a "treescope" directory
	// under the user cache dir.
	Dir string `toml:"dir"`

	// Redis is a host:port address. When set, Redis replaces the file
	// cache.
	Redis string `toml:"redis"`

	// Disabled turns caching off entirely.
	Disabled bool `toml:"disabled"`
}

// Store configures the optional Mongo catalog.
type Store struct {
	// URI is a Mongo connection string. Empty disables the store.
	URI string `toml:"uri"`

	// Database overrides the default database name.
	Database string `toml:"database"`
}

// Server configures `treescope serve`.
type Server struct {
	// Addr is the listen address, default ":8080".
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080"},
	}
}

// Load reads the config file at path. An empty path searches the
// default locations and returns Default() when no file exists; an
// explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = findDefault()
		if path == "" {
			return Default(), nil
		}
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && explicit {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config file %s", path)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	return cfg, nil
}

// CacheDir resolves the file cache directory, falling back to the user
// cache dir and finally the system temp dir.
func (c Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "treescope")
	}
	return filepath.Join(os.TempDir(), "treescope")
}

// findDefault checks ./treescope.toml, then the user config dir.
func findDefault() string {
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "treescope", DefaultFileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
