// Package framestore holds the single latest encoded frame shared between the
// producer and every reader.
package framestore

import (
	"errors"
	"time"

	"github.com/Egham-7/cloudlines/internal/models"

	"go.uber.org/atomic"
)

var (
	// ErrNoFrame is returned by ReadOrError before the first publish
	ErrNoFrame = errors.New("no frame published yet")
	// ErrEmptyFrame rejects frames without bytes, so a present frame is never empty
	ErrEmptyFrame = errors.New("frame is empty")
)

// Store is a single-writer, many-reader slot for the most recent frame.
// Publishing swaps a pointer; readers never see a partially written frame.
type Store struct {
	current atomic.Pointer[models.Frame]
	seq     atomic.Uint64
}

// New returns an empty store
func New() *Store {
	return &Store{}
}

// Publish replaces the current frame. The store takes ownership of frame and
// assigns its sequence number; callers must not touch frame.Data afterwards.
func (s *Store) Publish(frame *models.Frame) error {
	if frame == nil || len(frame.Data) == 0 {
		return ErrEmptyFrame
	}
	if frame.ContentType == "" {
		frame.ContentType = models.ContentTypeJPEG
	}
	if frame.CapturedAt.IsZero() {
		frame.CapturedAt = time.Now()
	}
	frame.Seq = s.seq.Inc()
	s.current.Store(frame)
	return nil
}

// Read returns the current frame, or false if nothing has been published
func (s *Store) Read() (*models.Frame, bool) {
	frame := s.current.Load()
	return frame, frame != nil
}

// ReadOrError is Read for callers that prefer an error value
func (s *Store) ReadOrError() (*models.Frame, error) {
	frame, ok := s.Read()
	if !ok {
		return nil, ErrNoFrame
	}
	return frame, nil
}

// Seq returns the sequence number of the last published frame (0 before any)
func (s *Store) Seq() uint64 {
	return s.seq.Load()
}
