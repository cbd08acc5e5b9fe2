package models

import "time"

// SourceType selects the frame source implementation
type SourceType string

const (
	SourceBrowser SourceType = "browser"
	SourceHTTP    SourceType = "http"
	SourceFile    SourceType = "file"
)

// Viewport is the capture surface size in pixels
type Viewport struct {
	Width  int `json:"width,omitzero" yaml:"width"`
	Height int `json:"height,omitzero" yaml:"height"`
}

// SourceConfig configures where raw frames come from
type SourceConfig struct {
	Type     SourceType        `json:"type,omitzero" yaml:"type"`
	URL      string            `json:"url,omitzero" yaml:"url"`   // browser and http sources
	Path     string            `json:"path,omitzero" yaml:"path"` // file source
	Viewport Viewport          `json:"viewport,omitzero" yaml:"viewport"`
	Warmup   time.Duration     `json:"warmup,omitzero" yaml:"warmup"`
	Timeout  time.Duration     `json:"timeout,omitzero" yaml:"timeout"`
	Headless *bool             `json:"headless,omitempty" yaml:"headless,omitempty"`
	Headers  map[string]string `json:"headers,omitzero" yaml:"headers"`
}

// IsHeadless reports whether the browser source runs without a window (default true)
func (s SourceConfig) IsHeadless() bool {
	return s.Headless == nil || *s.Headless
}

// EncoderConfig configures the resize + compress step
type EncoderConfig struct {
	Width   int `json:"width,omitzero" yaml:"width"`
	Quality int `json:"quality,omitzero" yaml:"quality"`
}

// CaptureConfig configures the frame producer
type CaptureConfig struct {
	Source  SourceConfig  `json:"source" yaml:"source"`
	Encoder EncoderConfig `json:"encoder" yaml:"encoder"`
	// Interval is the delay between the end of one encode and the next capture.
	Interval time.Duration `json:"interval,omitzero" yaml:"interval"`
	// StartupFailureLimit makes the producer give up after this many consecutive
	// failures before the first frame is published. Zero retries forever.
	StartupFailureLimit int `json:"startup_failure_limit,omitzero" yaml:"startup_failure_limit"`
}

// StreamConfig configures the multipart stream endpoint
type StreamConfig struct {
	Boundary string        `json:"boundary,omitzero" yaml:"boundary"`
	Interval time.Duration `json:"interval,omitzero" yaml:"interval"`
}

// MirrorConfig configures the optional Redis frame mirror
type MirrorConfig struct {
	RedisURL string        `json:"redis_url,omitzero" yaml:"redis_url"`
	Key      string        `json:"key,omitzero" yaml:"key"`
	TTL      time.Duration `json:"ttl,omitzero" yaml:"ttl"`
}

// Enabled reports whether a Redis URL was configured
func (m *MirrorConfig) Enabled() bool {
	return m != nil && m.RedisURL != ""
}
