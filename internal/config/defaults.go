package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddr:        ":8080",
			ShutdownTimeout: 10,
			MaxUploadBytes:  25 << 20,
		},
		Spotify: SpotifyConfig{
			TokenURL:   "https://accounts.spotify.com/api/token",
			APIBaseURL: "https://api.spotify.com/v1",
		},
		Predict: PredictConfig{
			URL: "http://localhost:8000",
		},
		Capture: CaptureConfig{
			SampleRate:  16000,
			Channels:    1,
			MinDuration: 1000,
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "moodmelody.db",
		},
		Worker: WorkerConfig{
			Count:     2,
			QueueSize: 8,
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Server
	if c.Server.BindAddr == "" {
		c.Server.BindAddr = d.Server.BindAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = d.Server.MaxUploadBytes
	}

	// Spotify
	if c.Spotify.TokenURL == "" {
		c.Spotify.TokenURL = d.Spotify.TokenURL
	}
	if c.Spotify.APIBaseURL == "" {
		c.Spotify.APIBaseURL = d.Spotify.APIBaseURL
	}

	// Predict
	if c.Predict.URL == "" {
		c.Predict.URL = d.Predict.URL
	}

	// Capture
	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = d.Capture.SampleRate
	}
	if c.Capture.Channels == 0 {
		c.Capture.Channels = d.Capture.Channels
	}
	if c.Capture.MinDuration == 0 {
		c.Capture.MinDuration = d.Capture.MinDuration
	}

	// Storage
	if c.Storage.Driver == "" {
		c.Storage.Driver = d.Storage.Driver
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = d.Storage.SQLitePath
	}

	// Worker
	if c.Worker.Count == 0 {
		c.Worker.Count = d.Worker.Count
	}
	if c.Worker.QueueSize == 0 {
		c.Worker.QueueSize = d.Worker.QueueSize
	}
}
