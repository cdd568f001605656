// Package config loads service settings from a TOML file with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// EnvConfigPath names the variable pointing at the config file.
const EnvConfigPath = "MOODMELODY_CONFIG"

// DefaultPath is read when EnvConfigPath is unset and the file exists.
const DefaultPath = "moodmelody.toml"

// Load reads configuration from MOODMELODY_CONFIG or ./moodmelody.toml,
// applies defaults and environment overrides. It does not validate.
func Load() (*Config, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return LoadFrom(path)
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return LoadFrom(DefaultPath)
	}

	cfg := &Config{}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("APP_BIND_ADDR"); v != "" {
		cfg.Server.BindAddr = v
	}

	// Spotify
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		cfg.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		cfg.Spotify.ClientSecret = v
	}

	// Predict
	if v := os.Getenv("PREDICT_URL"); v != "" {
		cfg.Predict.URL = v
	}

	// Capture
	if v := os.Getenv("CAPTURE_COMMAND"); v != "" {
		cfg.Capture.Command = v
		cfg.Capture.Args = strings.Fields(os.Getenv("CAPTURE_ARGS"))
	}

	// Storage
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
	}

	// Worker
	if v := os.Getenv("WORKER_COUNT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Worker.Count = i
		}
	}
}
