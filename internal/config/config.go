package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the server configuration, loaded from an optional TOML file.
type Config struct {
	// LogFile receives server logs in addition to stderr.
	LogFile string `toml:"log_file"`
	// StrictCheck enables chemistry-plausibility validation in the
	// full-document pass. Structural validation always runs.
	StrictCheck bool `toml:"strict_check"`
	// ImportRoots are extra directories searched for @import targets.
	ImportRoots []string `toml:"import_roots"`
	// WatchImports invalidates resolutions when an imported file changes
	// on disk outside the editor.
	WatchImports bool `toml:"watch_imports"`
}

func Default() Config {
	return Config{
		StrictCheck:  true,
		WatchImports: true,
	}
}

// Load reads a TOML config file on top of the defaults. An empty path
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
