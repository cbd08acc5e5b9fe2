// Package source acquires raw frames from the thing being streamed.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/cloudlines/internal/models"
)

// Source produces raw (unencoded or lightly encoded) image bytes on demand.
// Open runs the one-time setup including any warm-up; Capture is only valid after it.
type Source interface {
	Open(ctx context.Context) error
	Capture(ctx context.Context) ([]byte, error)
	Close() error
	Name() string
}

// New builds the source selected by cfg.Type
func New(cfg models.SourceConfig) (Source, error) {
	switch cfg.Type {
	case models.SourceBrowser:
		return NewBrowserSource(cfg), nil
	case models.SourceHTTP:
		return NewHTTPSource(cfg), nil
	case models.SourceFile:
		return NewFileSource(cfg), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
