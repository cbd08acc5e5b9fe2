package stream

import (
	"time"

	"github.com/Egham-7/cloudlines/internal/models"
	"github.com/Egham-7/cloudlines/internal/services/stream/contracts"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// State is the lifecycle position of a subscriber
type State int32

const (
	StateConnected State = iota
	StateStreaming
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateStreaming:
		return "streaming"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Subscriber is one viewer pulling frames from the store at its own cadence.
// It never blocks the producer: a slow viewer just skips frames.
type Subscriber struct {
	ID          string
	RemoteAddr  string
	UserAgent   string
	ConnectedAt time.Time

	frames   contracts.FrameReader
	interval time.Duration

	state      atomic.Int32
	framesSent atomic.Uint64
	bytesSent  atomic.Uint64
}

// NewSubscriber creates a subscriber in the Connected state
func NewSubscriber(frames contracts.FrameReader, interval time.Duration, remoteAddr, userAgent string) *Subscriber {
	return &Subscriber{
		ID:          uuid.NewString(),
		RemoteAddr:  remoteAddr,
		UserAgent:   userAgent,
		ConnectedAt: time.Now(),
		frames:      frames,
		interval:    interval,
	}
}

// State returns the current lifecycle state
func (s *Subscriber) State() State {
	return State(s.state.Load())
}

// Run streams until the connection goes away. It always returns a
// *contracts.StreamError; ClientDisconnect and ServerShutdown are the normal endings.
func (s *Subscriber) Run(conn contracts.ConnectionState, w contracts.FrameWriter) error {
	if !s.state.CompareAndSwap(int32(StateConnected), int32(StateStreaming)) {
		return contracts.NewInternalError(s.ID, "subscriber already started", nil)
	}
	defer s.Close()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-conn.Closed():
			return contracts.NewClientDisconnectError(s.ID)
		case <-conn.Done():
			return contracts.NewServerShutdownError(s.ID)
		case <-timer.C:
		}

		if err := s.Tick(w); err != nil {
			return err
		}
		timer.Reset(s.interval)
	}
}

// Tick reads the store once and writes the frame if there is one.
// No frame yet means nothing is written.
func (s *Subscriber) Tick(w contracts.FrameWriter) error {
	if s.State() == StateDisconnected {
		return contracts.NewClientDisconnectError(s.ID)
	}

	frame, ok := s.frames.Read()
	if !ok {
		return nil
	}

	if err := w.WriteFrame(frame); err != nil {
		return err
	}

	s.framesSent.Inc()
	s.bytesSent.Add(uint64(len(frame.Data)))
	return nil
}

// Close moves the subscriber to its terminal state. Further ticks fail.
func (s *Subscriber) Close() {
	s.state.Store(int32(StateDisconnected))
}

// Info returns a snapshot for reporting
func (s *Subscriber) Info() models.SubscriberInfo {
	return models.SubscriberInfo{
		ID:          s.ID,
		RemoteAddr:  s.RemoteAddr,
		UserAgent:   s.UserAgent,
		ConnectedAt: s.ConnectedAt,
		State:       s.State().String(),
		FramesSent:  s.framesSent.Load(),
		BytesSent:   s.bytesSent.Load(),
	}
}
