package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var overrideVars = []string{
	EnvConfigPath, "APP_BIND_ADDR", "SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET",
	"PREDICT_URL", "CAPTURE_COMMAND", "CAPTURE_ARGS", "STORAGE_DRIVER",
	"SQLITE_PATH", "DATABASE_URL", "WORKER_COUNT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range overrideVars {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moodmelody.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[server]
bind_addr = "127.0.0.1:9000"

[spotify]
client_id = "file-id"
client_secret = "file-secret"

[predict]
url = "http://predict.local:8000"

[capture]
command = "parecord"
args = ["--raw"]
sample_rate = 22050

[storage]
driver = "memory"
`)
	t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")
	t.Setenv("WORKER_COUNT", "4")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.BindAddr != "127.0.0.1:9000" {
		t.Fatalf("bind addr: got %q", cfg.Server.BindAddr)
	}
	if cfg.Spotify.ClientID != "file-id" || cfg.Spotify.ClientSecret != "env-secret" {
		t.Fatalf("spotify: got %+v", cfg.Spotify)
	}
	if cfg.Predict.URL != "http://predict.local:8000" {
		t.Fatalf("predict url: got %q", cfg.Predict.URL)
	}
	if cfg.Capture.Command != "parecord" || len(cfg.Capture.Args) != 1 || cfg.Capture.SampleRate != 22050 {
		t.Fatalf("capture: got %+v", cfg.Capture)
	}
	if cfg.Capture.Channels != 1 || cfg.Capture.MinDuration != 1000 {
		t.Fatalf("capture defaults not applied: %+v", cfg.Capture)
	}
	if cfg.Worker.Count != 4 || cfg.Worker.QueueSize != 8 {
		t.Fatalf("worker: got %+v", cfg.Worker)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadFrom_UnknownKey(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[spotify]
client_idd = "typo"
`)
	_, err := LoadFrom(path)
	if err == nil || !strings.Contains(err.Error(), "spotify.client_idd") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/moodmelody")
	t.Setenv("APP_BIND_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.DatabaseURL == "" {
		t.Fatalf("storage: got %+v", cfg.Storage)
	}
	if cfg.Server.BindAddr != ":9090" {
		t.Fatalf("bind addr: got %q", cfg.Server.BindAddr)
	}
	if cfg.Predict.URL != "http://localhost:8000" {
		t.Fatalf("predict default: got %q", cfg.Predict.URL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Spotify.ClientID = "id"
		cfg.Spotify.ClientSecret = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
		wantIs  error
	}{
		{name: "defaults with credentials", mutate: func(c *Config) {}},
		{name: "missing credentials", mutate: func(c *Config) { c.Spotify.ClientSecret = "" }, wantIs: ErrMissingCredentials},
		{name: "bad predict url", mutate: func(c *Config) { c.Predict.URL = "localhost:8000" }, wantErr: "predict"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "mongo" }, wantErr: "invalid driver"},
		{name: "postgres without url", mutate: func(c *Config) { c.Storage.Driver = "postgres" }, wantErr: "database_url"},
		{name: "three channels", mutate: func(c *Config) { c.Capture.Channels = 3 }, wantErr: "channels"},
		{name: "no workers", mutate: func(c *Config) { c.Worker.Count = 0 }, wantErr: "count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			switch {
			case tt.wantIs != nil:
				if !errors.Is(err, tt.wantIs) {
					t.Fatalf("expected %v, got %v", tt.wantIs, err)
				}
			case tt.wantErr != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
		})
	}
}
