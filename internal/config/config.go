// Package config loads the file-based application configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "jukebox"

type Config struct {
	DatabasePath string `koanf:"database_path"`

	Spotify SpotifyConfig `koanf:"spotify"`
	Log     LogConfig     `koanf:"log"`
}

// SpotifyConfig holds the playback-device settings.
type SpotifyConfig struct {
	// DeviceName is this application's advertised device name; an active
	// Spotify device containing it is preferred for playback.
	DeviceName string `koanf:"device_name"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level      string `koanf:"level"` // debug, info, warn, error
	Path       string `koanf:"path"`  // empty disables the file sink
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// Load reads the config files in priority order (last wins) and applies
// defaults for everything left unset.
func Load() (*Config, error) {
	k := koanf.New(".")

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.DatabasePath == "" {
		dbPath, err := xdg.DataFile(filepath.Join(appName, appName+".db"))
		if err != nil {
			return nil, err
		}
		cfg.DatabasePath = dbPath
	} else {
		cfg.DatabasePath = expandPath(cfg.DatabasePath)
	}
	cfg.Log.Path = expandPath(cfg.Log.Path)

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			DeviceName: "Jukebox",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func getConfigPaths() []string {
	paths := []string{
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
	}

	// ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
