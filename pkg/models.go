// Package pkg re-exports the configuration types needed to embed cloudlines.
package pkg

import "github.com/Egham-7/cloudlines/internal/models"

type (
	ServerConfig    = models.ServerConfig
	CaptureConfig   = models.CaptureConfig
	SourceConfig    = models.SourceConfig
	SourceType      = models.SourceType
	Viewport        = models.Viewport
	EncoderConfig   = models.EncoderConfig
	StreamConfig    = models.StreamConfig
	MirrorConfig    = models.MirrorConfig
	RateLimitConfig = models.RateLimitConfig
	Frame           = models.Frame
	FrameStats      = models.FrameStats
)
