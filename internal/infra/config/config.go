// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	User       UserConfig       `yaml:"user"`
	Store      StoreConfig      `yaml:"store"`
	Session    SessionConfig    `yaml:"session"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Insights   InsightsConfig   `yaml:"insights"`
	Spotify    SpotifyConfig    `yaml:"spotify"`
}

// UserConfig identifies the listener whose preferences are learned.
type UserConfig struct {
	Name string `yaml:"name" default:"default"`
}

// StoreConfig represents preference persistence configuration.
type StoreConfig struct {
	Path string `yaml:"path" default:"user_preferences.json"`
}

// SessionConfig represents playback session configuration.
type SessionConfig struct {
	RecommendLimit  int    `yaml:"recommend_limit" default:"20" validate:"gte=1,lte=100"`
	RefillLimit     int    `yaml:"refill_limit" default:"10" validate:"gte=1,lte=100"`
	PollIntervalSec int    `yaml:"poll_interval_sec" default:"3" validate:"gte=1,lte=60"`
	ErrorBackoffSec int    `yaml:"error_backoff_sec" default:"5" validate:"gte=1,lte=300"`
	DeviceID        string `yaml:"device_id"`
}

// ClassifierConfig represents text emotion classifier configuration. The
// settings map is decoded by the classifier itself.
type ClassifierConfig struct {
	Settings map[string]any `yaml:"settings"`
}

// InsightsConfig represents taste insight configuration.
type InsightsConfig struct {
	Clusters int `yaml:"clusters" default:"3" validate:"gte=1,lte=10"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	RefreshToken string `yaml:"refresh_token" validate:"required"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("MELLOWMIND_USER"); v != "" {
		c.User.Name = v
	}
	if v := os.Getenv("MELLOWMIND_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// PollInterval returns the playback status poll interval as a duration.
func (c *SessionConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// ErrorBackoff returns the wait after a failed status poll as a duration.
func (c *SessionConfig) ErrorBackoff() time.Duration {
	return time.Duration(c.ErrorBackoffSec) * time.Second
}
