package config

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Spotify SpotifyConfig `toml:"spotify"`
	Predict PredictConfig `toml:"predict"`
	Capture CaptureConfig `toml:"capture"`
	Storage StorageConfig `toml:"storage"`
	Worker  WorkerConfig  `toml:"worker"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	BindAddr        string `toml:"bind_addr"`
	ShutdownTimeout int    `toml:"shutdown_timeout"` // seconds
	MaxUploadBytes  int64  `toml:"max_upload_bytes"`
}

// SpotifyConfig holds catalog credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
	APIBaseURL   string `toml:"api_base_url"`
}

// PredictConfig holds the emotion prediction backend settings.
type PredictConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // seconds, 0 disables
}

// CaptureConfig holds microphone settings.
type CaptureConfig struct {
	Command     string   `toml:"command"`
	Args        []string `toml:"args"`
	SampleRate  int      `toml:"sample_rate"`
	Channels    int      `toml:"channels"`
	MinDuration int      `toml:"min_duration_ms"`
}

// StorageConfig selects the history store.
type StorageConfig struct {
	Driver      string `toml:"driver"`
	SQLitePath  string `toml:"sqlite_path"`
	DatabaseURL string `toml:"database_url"`
}

// WorkerConfig sizes the background pool.
type WorkerConfig struct {
	Count     int `toml:"count"`
	QueueSize int `toml:"queue_size"`
}
