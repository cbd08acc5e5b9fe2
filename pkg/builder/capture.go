package builder

import (
	"time"

	"github.com/Egham-7/cloudlines/internal/models"
)

// BrowserSource captures screenshots of url in a headless browser
func (b *Builder) BrowserSource(url string, width, height int, warmup time.Duration) *Builder {
	src := &b.cfg.Capture.Source
	src.Type = models.SourceBrowser
	src.URL = url
	src.Viewport = models.Viewport{Width: width, Height: height}
	src.Warmup = warmup
	return b
}

// HTTPSource fetches url on every tick
func (b *Builder) HTTPSource(url string, headers map[string]string) *Builder {
	src := &b.cfg.Capture.Source
	src.Type = models.SourceHTTP
	src.URL = url
	src.Headers = headers
	return b
}

// FileSource re-reads path on every tick
func (b *Builder) FileSource(path string) *Builder {
	src := &b.cfg.Capture.Source
	src.Type = models.SourceFile
	src.Path = path
	return b
}

func (b *Builder) SourceTimeout(timeout time.Duration) *Builder {
	b.cfg.Capture.Source.Timeout = timeout
	return b
}

func (b *Builder) CaptureInterval(interval time.Duration) *Builder {
	b.cfg.Capture.Interval = interval
	return b
}

func (b *Builder) StartupFailureLimit(limit int) *Builder {
	b.cfg.Capture.StartupFailureLimit = limit
	return b
}

func (b *Builder) Encoder(width, quality int) *Builder {
	b.cfg.Capture.Encoder = models.EncoderConfig{Width: width, Quality: quality}
	return b
}

func (b *Builder) StreamInterval(interval time.Duration) *Builder {
	b.cfg.Stream.Interval = interval
	return b
}

func (b *Builder) Boundary(boundary string) *Builder {
	b.cfg.Stream.Boundary = boundary
	return b
}

// Mirror publishes every frame to Redis under key
func (b *Builder) Mirror(redisURL, key string, ttl time.Duration) *Builder {
	b.cfg.Mirror = &models.MirrorConfig{
		RedisURL: redisURL,
		Key:      key,
		TTL:      ttl,
	}
	return b
}
