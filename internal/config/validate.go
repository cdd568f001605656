package config

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrMissingCredentials reports absent catalog client credentials.
var ErrMissingCredentials = errors.New("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Spotify.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spotify: %w", err))
	}
	if err := c.Predict.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("predict: %w", err))
	}
	if err := c.Capture.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("capture: %w", err))
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if err := c.Worker.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("worker: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks ServerConfig for errors.
func (c *ServerConfig) Validate() error {
	if c.BindAddr == "" {
		return errors.New("bind_addr is required")
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown_timeout must be non-negative")
	}
	if c.MaxUploadBytes < 0 {
		return errors.New("max_upload_bytes must be non-negative")
	}
	return nil
}

// Validate checks SpotifyConfig for errors.
func (c *SpotifyConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	if err := validateURL(c.TokenURL); err != nil {
		return fmt.Errorf("invalid token_url: %w", err)
	}
	if err := validateURL(c.APIBaseURL); err != nil {
		return fmt.Errorf("invalid api_base_url: %w", err)
	}
	return nil
}

// Validate checks PredictConfig for errors.
func (c *PredictConfig) Validate() error {
	if err := validateURL(c.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}
	return nil
}

// Validate checks CaptureConfig for errors.
func (c *CaptureConfig) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("sample_rate must be positive")
	}
	if c.Channels < 1 || c.Channels > 2 {
		return errors.New("channels must be 1 or 2")
	}
	if c.MinDuration < 0 {
		return errors.New("min_duration_ms must be non-negative")
	}
	return nil
}

// Validate checks StorageConfig for errors.
func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required for the postgres driver")
		}
	case "memory":
		// valid
	default:
		return fmt.Errorf("invalid driver: %s (must be sqlite, postgres, or memory)", c.Driver)
	}
	return nil
}

// Validate checks WorkerConfig for errors.
func (c *WorkerConfig) Validate() error {
	if c.Count < 1 {
		return errors.New("count must be at least 1")
	}
	if c.QueueSize < 1 {
		return errors.New("queue_size must be at least 1")
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
