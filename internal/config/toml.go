// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Stats    StatsConfig    `toml:"stats"`
	Sessions SessionsConfig `toml:"sessions"`
	Import   ImportConfig   `toml:"import"`
}

// StatsConfig maps stats-related settings.
type StatsConfig struct {
	Confidence *float64 `toml:"confidence"`
	Format     *string  `toml:"format"`
	Range      *string  `toml:"range"`
}

// SessionsConfig maps session list settings.
type SessionsConfig struct {
	PageSize *int `toml:"page-size"`
}

// ImportConfig maps import and watch settings.
type ImportConfig struct {
	Dir    *string `toml:"dir"`
	Year   *int    `toml:"year"`
	Room   *string `toml:"room"`
	Notify *bool   `toml:"notify"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
