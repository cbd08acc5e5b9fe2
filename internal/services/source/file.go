package source

import (
	"context"
	"fmt"
	"os"

	"github.com/Egham-7/cloudlines/internal/models"
)

// FileSource re-reads an image file on every capture. Anything that rewrites
// the file (a renderer, a cron job) becomes the live source.
type FileSource struct {
	cfg models.SourceConfig
}

func NewFileSource(cfg models.SourceConfig) *FileSource {
	return &FileSource{cfg: cfg}
}

func (f *FileSource) Name() string {
	return "file(" + f.cfg.Path + ")"
}

func (f *FileSource) Open(ctx context.Context) error {
	if _, err := os.Stat(f.cfg.Path); err != nil {
		return fmt.Errorf("frame file unavailable: %w", err)
	}
	return sleepContext(ctx, f.cfg.Warmup)
}

func (f *FileSource) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.cfg.Path)
	if err != nil {
		return nil, models.NewSourceError(f.Name(), err)
	}
	if len(data) == 0 {
		return nil, models.NewSourceError(f.Name(), fmt.Errorf("%s is empty", f.cfg.Path))
	}
	return data, nil
}

func (f *FileSource) Close() error {
	return nil
}
