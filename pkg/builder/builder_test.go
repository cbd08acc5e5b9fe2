package builder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Egham-7/cloudlines/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderProducesValidConfig(t *testing.T) {
	cfg := New().
		Port("9000").
		Environment("production").
		BrowserSource("https://game.example.com/?cinematic", 1280, 720, 2*time.Second).
		CaptureInterval(100*time.Millisecond).
		Encoder(480, 75).
		StreamInterval(50*time.Millisecond).
		Boundary("frames").
		Mirror("redis://localhost:6379/0", "", 0).
		Build()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, models.SourceBrowser, cfg.Capture.Source.Type)
	assert.Equal(t, 2*time.Second, cfg.Capture.Source.Warmup)
	assert.Equal(t, 480, cfg.Capture.Encoder.Width)
	assert.Equal(t, "frames", cfg.Stream.Boundary)
	assert.Equal(t, "cloudlines:latest", cfg.Mirror.Key)
}

func TestBuilderWithoutSourceFailsValidation(t *testing.T) {
	require.Error(t, New().Build().Validate())
	require.NoError(t, New().FileSource("frame.png").Build().Validate())
	require.NoError(t, New().HTTPSource("http://cam/snap.jpg", nil).Build().Validate())
}

func TestBuilderMiddleware(t *testing.T) {
	b := New().
		WithRateLimit(10, time.Minute).
		WithMiddleware(func(c *fiber.Ctx) error { return c.Next() })

	require.NotNil(t, b.GetRateLimitConfig())
	assert.Equal(t, 10, b.GetRateLimitConfig().Max)
	assert.Nil(t, b.GetRateLimitConfig().KeyFunc)
	assert.Len(t, b.GetMiddlewares(), 1)
}

func TestFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("capture:\n  source:\n    type: http\n    url: http://cam/snap.jpg\n"), 0o600))

	b, err := FromYAML(path, nil)
	require.NoError(t, err)

	cfg := b.Port("4000").Build()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, models.SourceHTTP, cfg.Capture.Source.Type)
}
