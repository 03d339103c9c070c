package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3456", cfg.Server.Listen)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "http://localhost:3456", cfg.Server.BaseURL)
	assert.Equal(t, "data/music-feed.json", cfg.Feed.File)
	assert.Equal(t, "http://localhost:3456", cfg.Feed.API)
	assert.Equal(t, 20*time.Second, cfg.Extractor.Timeout)
	assert.Empty(t, cfg.Extractor.UserAgent)
}

func TestLoad_FromFile(t *testing.T) {
	content := `
server:
  listen: ":9999"
  timeout: 5s
  base_url: https://music.example.com
feed:
  file: /var/lib/musicfeed/feed.json
extractor:
  timeout: 10s
  user_agent: test-agent
`
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Listen)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "https://music.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "/var/lib/musicfeed/feed.json", cfg.Feed.File)
	assert.Equal(t, 10*time.Second, cfg.Extractor.Timeout)
	assert.Equal(t, "test-agent", cfg.Extractor.UserAgent)

	// unset values still get defaults
	assert.Equal(t, "http://localhost:3456", cfg.Feed.API)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("MUSICFEED_DATA", "/tmp/music-data")
	t.Setenv("MUSICFEED_LISTEN", ":8081")

	content := `
server:
  listen: "${MUSICFEED_LISTEN}"
feed:
  file: ${MUSICFEED_DATA}/feed.json
`
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Server.Listen)
	assert.Equal(t, "/tmp/music-data/feed.json", cfg.Feed.File)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("no-such-config.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: [broken"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestGetServerConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	listen, timeout := cfg.GetServerConfig()
	assert.Equal(t, ":3456", listen)
	assert.Equal(t, 30*time.Second, timeout)
}
