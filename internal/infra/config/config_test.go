package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
spotify:
  client_id: id
  client_secret: secret
  refresh_token: token
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.User.Name)
	assert.Equal(t, "user_preferences.json", cfg.Store.Path)
	assert.Equal(t, 20, cfg.Session.RecommendLimit)
	assert.Equal(t, 10, cfg.Session.RefillLimit)
	assert.Equal(t, 3*time.Second, cfg.Session.PollInterval())
	assert.Equal(t, 5*time.Second, cfg.Session.ErrorBackoff())
	assert.Equal(t, 3, cfg.Insights.Clusters)
}

func TestLoad_ExplicitValues(t *testing.T) {
	path := writeConfig(t, `
user:
  name: alice
store:
  path: /tmp/prefs.json
session:
  recommend_limit: 50
  poll_interval_sec: 10
  device_id: dev42
classifier:
  settings:
    happy_threshold: 0.6
insights:
  clusters: 5
spotify:
  client_id: id
  client_secret: secret
  refresh_token: token
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.User.Name)
	assert.Equal(t, "/tmp/prefs.json", cfg.Store.Path)
	assert.Equal(t, 50, cfg.Session.RecommendLimit)
	assert.Equal(t, 10*time.Second, cfg.Session.PollInterval())
	assert.Equal(t, "dev42", cfg.Session.DeviceID)
	assert.Equal(t, 0.6, cfg.Classifier.Settings["happy_threshold"])
	assert.Equal(t, 5, cfg.Insights.Clusters)
}

func TestLoad_MissingCredentials(t *testing.T) {
	path := writeConfig(t, `
spotify:
  client_id: id
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")
	t.Setenv("SPOTIFY_REFRESH_TOKEN", "env-token")
	t.Setenv("MELLOWMIND_USER", "bob")

	path := writeConfig(t, `
spotify:
  client_id: file-id
  client_secret: file-secret
  refresh_token: file-token
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-id", cfg.Spotify.ClientID)
	assert.Equal(t, "env-secret", cfg.Spotify.ClientSecret)
	assert.Equal(t, "env-token", cfg.Spotify.RefreshToken)
	assert.Equal(t, "bob", cfg.User.Name)
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidRange(t *testing.T) {
	path := writeConfig(t, `
session:
  recommend_limit: 500
spotify:
  client_id: id
  client_secret: secret
  refresh_token: token
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "spotify: [unclosed")

	_, err := Load(path)
	assert.Error(t, err)
}
