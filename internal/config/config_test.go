package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Egham-7/cloudlines/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
capture:
  source:
    type: Browser
    url: https://example.com
`))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, models.SourceBrowser, cfg.Capture.Source.Type)
	assert.Equal(t, 1280, cfg.Capture.Source.Viewport.Width)
	assert.Equal(t, 720, cfg.Capture.Source.Viewport.Height)
	assert.Equal(t, time.Second, cfg.Capture.Source.Warmup)
	assert.Equal(t, 640, cfg.Capture.Encoder.Width)
	assert.Equal(t, 40*time.Millisecond, cfg.Capture.Interval)
	assert.Equal(t, 40*time.Millisecond, cfg.Stream.Interval)
	assert.Equal(t, "cloudlinesframe", cfg.Stream.Boundary)
	assert.True(t, cfg.Capture.Source.IsHeadless())
	assert.Nil(t, cfg.Mirror)
	require.NoError(t, cfg.Validate())
}

func TestParseSubstitutesEnvVars(t *testing.T) {
	t.Setenv("CLOUDLINES_TEST_PORT", "8181")

	cfg, err := Parse([]byte(`
server:
  port: "${CLOUDLINES_TEST_PORT}"
  log_level: "${CLOUDLINES_TEST_UNSET:-debug}"
capture:
  interval: 250ms
  source:
    type: file
    path: /tmp/frame.png
mirror:
  redis_url: redis://localhost:6379/0
`))
	require.NoError(t, err)

	assert.Equal(t, "8181", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.GetNormalizedLogLevel())
	assert.Equal(t, 250*time.Millisecond, cfg.Capture.Interval)
	assert.Zero(t, cfg.Capture.Source.Warmup)
	require.True(t, cfg.Mirror.Enabled())
	assert.Equal(t, "cloudlines:latest", cfg.Mirror.Key)
	assert.Equal(t, 10*time.Second, cfg.Mirror.TTL)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.MissingFields, "capture.source.type")

	cfg.Capture.Source.Type = models.SourceHTTP
	err = cfg.Validate()
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.MissingFields, "capture.source.url")

	cfg.Capture.Source.URL = "http://camera.local/snapshot.jpg"
	cfg.Capture.Encoder.Quality = 101
	cfg.Stream.Boundary = `bad"boundary`
	err = cfg.Validate()
	require.ErrorAs(t, err, &vErr)
	assert.ElementsMatch(t, []string{"capture.encoder.quality", "stream.boundary"}, vErr.InvalidFields)
	assert.Contains(t, err.Error(), "invalid configuration fields")

	cfg.Capture.Encoder.Quality = 90
	cfg.Stream.Boundary = "ok"
	require.NoError(t, cfg.Validate())

	cfg.Capture.Source.Type = "webcam"
	require.Error(t, cfg.Validate())
}

func TestValidateWithoutSource(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ValidateWithoutSource())

	cfg.Stream.Interval = 0
	cfg.Capture.Interval = 0
	err := cfg.ValidateWithoutSource()

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.ElementsMatch(t, []string{"capture.interval", "stream.interval"}, vErr.InvalidFields)
	assert.Empty(t, vErr.MissingFields)
}

func TestLoadFromFileRejectsBadPaths(t *testing.T) {
	_, err := LoadFromFile("../config.yaml")
	require.Error(t, err)

	_, err = LoadFromFile("config.json")
	require.Error(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capture:\n  source:\n    type: file\n    path: frame.jpg\n"), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, models.SourceFile, cfg.Capture.Source.Type)
}
