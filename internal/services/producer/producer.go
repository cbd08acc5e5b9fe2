// Package producer runs the capture loop that keeps the frame store current.
package producer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Egham-7/cloudlines/internal/models"
	"github.com/Egham-7/cloudlines/internal/services/circuitbreaker"
	"github.com/Egham-7/cloudlines/internal/services/encoder"
	"github.com/Egham-7/cloudlines/internal/services/framestore"
	"github.com/Egham-7/cloudlines/internal/services/source"

	"github.com/dustin/go-humanize"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"go.uber.org/atomic"
)

var (
	ErrAlreadyRunning = errors.New("producer is already running")
	// ErrStartupFailed is returned when no frame could be produced within the startup failure limit
	ErrStartupFailed = errors.New("producer failed before the first frame")
)

// FrameSink receives every published frame after it reaches the store.
// Sink errors are logged and never stop the producer. A sink that keeps
// failing is skipped until its circuit breaker lets a probe through.
type FrameSink interface {
	Consume(ctx context.Context, frame *models.Frame) error
	Name() string
}

type guardedSink struct {
	sink    FrameSink
	breaker *circuitbreaker.CircuitBreaker
}

// Producer is the only writer of the frame store. One tick is
// capture -> encode -> publish, and the next tick starts Interval after
// the encode finished.
type Producer struct {
	source  source.Source
	encoder encoder.Encoder
	store   *framestore.Store
	cfg     models.CaptureConfig
	sinks   []guardedSink

	running             atomic.Bool
	published           atomic.Uint64
	failures            atomic.Uint64
	consecutiveFailures atomic.Uint64
	lastCapture         atomic.Duration
	lastEncode          atomic.Duration
	lastFrameBytes      atomic.Int64
	lastFrameAt         atomic.Time
	lastError           atomic.Error
}

// New creates a producer. sinks may be empty.
func New(src source.Source, enc encoder.Encoder, store *framestore.Store, cfg models.CaptureConfig, sinks ...FrameSink) *Producer {
	guarded := make([]guardedSink, 0, len(sinks))
	for _, sink := range sinks {
		guarded = append(guarded, guardedSink{
			sink:    sink,
			breaker: circuitbreaker.New("sink:" + sink.Name()),
		})
	}

	return &Producer{
		source:  src,
		encoder: enc,
		store:   store,
		cfg:     cfg,
		sinks:   guarded,
	}
}

// Run opens the source and produces frames until ctx is cancelled. A tick in
// progress is allowed to finish. Capture and encode failures are retried after
// the regular delay; see CaptureConfig.StartupFailureLimit for the exception.
func (p *Producer) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer p.running.Store(false)

	fiberlog.Infof("Opening frame source %s...", p.source.Name())
	if err := p.source.Open(ctx); err != nil {
		return fmt.Errorf("failed to open frame source %s: %w", p.source.Name(), err)
	}
	defer func() {
		if err := p.source.Close(); err != nil {
			fiberlog.Errorf("Failed to close frame source %s: %v", p.source.Name(), err)
		}
	}()

	fiberlog.Infof("Capturing frames every %v (after encode) from %s", p.cfg.Interval, p.source.Name())

	for {
		if ctx.Err() != nil {
			fiberlog.Info("Frame producer stopped")
			return nil
		}

		encodedAt, err := p.tick(ctx)
		if err != nil {
			if ctx.Err() != nil {
				fiberlog.Info("Frame producer stopped")
				return nil
			}
			if fatal := p.recordFailure(err); fatal != nil {
				return fatal
			}
		}

		wait := p.cfg.Interval - time.Since(encodedAt)
		if err := sleepContext(ctx, wait); err != nil {
			fiberlog.Info("Frame producer stopped")
			return nil
		}
	}
}

// tick performs one capture/encode/publish cycle and returns when the encode step ended
func (p *Producer) tick(ctx context.Context) (time.Time, error) {
	start := time.Now()
	raw, err := p.source.Capture(ctx)
	captured := time.Now()
	p.lastCapture.Store(captured.Sub(start))
	if err != nil {
		if !isAppError(err) {
			err = models.NewSourceError(p.source.Name(), err)
		}
		return captured, err
	}

	data, err := p.encoder.Encode(raw, p.cfg.Encoder.Width)
	encodedAt := time.Now()
	p.lastEncode.Store(encodedAt.Sub(captured))
	if err != nil {
		if !isAppError(err) {
			err = models.NewEncoderError("failed to encode frame", err)
		}
		return encodedAt, err
	}

	frame := &models.Frame{
		Data:        data,
		CapturedAt:  captured,
		ContentType: p.encoder.ContentType(),
	}
	if err := p.store.Publish(frame); err != nil {
		return encodedAt, models.NewEncoderError("encoder produced an unusable frame", err)
	}

	if p.published.Inc() == 1 {
		fiberlog.Infof("First frame published (%s, capture %v, encode %v)",
			humanize.Bytes(uint64(len(data))), captured.Sub(start), encodedAt.Sub(captured))
	} else {
		fiberlog.Tracef("Published frame #%d (%s)", frame.Seq, humanize.Bytes(uint64(len(data))))
	}
	if n := p.consecutiveFailures.Swap(0); n > 0 {
		fiberlog.Infof("Frame source recovered after %d failed ticks", n)
	}
	p.lastFrameBytes.Store(int64(len(data)))
	p.lastFrameAt.Store(captured)

	p.fanOut(ctx, frame)

	return encodedAt, nil
}

func (p *Producer) fanOut(ctx context.Context, frame *models.Frame) {
	for _, g := range p.sinks {
		if !g.breaker.CanExecute() {
			continue
		}
		if err := g.sink.Consume(ctx, frame); err != nil {
			g.breaker.RecordFailure()
			fiberlog.Warnf("Frame sink %s failed for frame #%d: %v", g.sink.Name(), frame.Seq, err)
			continue
		}
		g.breaker.RecordSuccess()
	}
}

func (p *Producer) recordFailure(err error) error {
	p.failures.Inc()
	consecutive := p.consecutiveFailures.Inc()
	p.lastError.Store(err)

	limit := p.cfg.StartupFailureLimit
	if p.published.Load() == 0 && limit > 0 && consecutive >= uint64(limit) {
		fiberlog.Errorf("Giving up after %d failed ticks without a frame: %v", consecutive, err)
		return fmt.Errorf("%w: %d consecutive failures, last: %w", ErrStartupFailed, consecutive, err)
	}

	// Log the first failure of a streak loudly, then only periodically.
	if consecutive == 1 || consecutive%100 == 0 {
		fiberlog.Warnf("Frame tick failed (%d in a row), retrying in %v: %v", consecutive, p.cfg.Interval, err)
	} else {
		fiberlog.Debugf("Frame tick failed (%d in a row): %v", consecutive, err)
	}
	return nil
}

// Running reports whether Run is active
func (p *Producer) Running() bool {
	return p.running.Load()
}

// Stats returns a point-in-time view of the producer counters. The last
// error is sanitized since it is served to clients.
func (p *Producer) Stats() models.FrameStats {
	var lastError, lastErrorCode string
	if err := p.lastError.Load(); err != nil {
		sanitized := models.SanitizeError(err)
		lastError, lastErrorCode = sanitized.Message, sanitized.Code
	}

	return models.FrameStats{
		Published:           p.published.Load(),
		Failures:            p.failures.Load(),
		ConsecutiveFailures: p.consecutiveFailures.Load(),
		LastSeq:             p.store.Seq(),
		LastFrameBytes:      int(p.lastFrameBytes.Load()),
		LastFrameAt:         p.lastFrameAt.Load(),
		LastCaptureTime:     p.lastCapture.Load(),
		LastEncodeTime:      p.lastEncode.Load(),
		LastError:           lastError,
		LastErrorCode:       lastErrorCode,
	}
}

// SinkStats reports the circuit breaker of every frame sink
func (p *Producer) SinkStats() []models.SinkStats {
	stats := make([]models.SinkStats, 0, len(p.sinks))
	for _, g := range p.sinks {
		m := g.breaker.Metrics()
		stats = append(stats, models.SinkStats{
			Name:      g.sink.Name(),
			State:     g.breaker.GetState().String(),
			Attempts:  m.TotalRequests,
			Succeeded: m.SuccessfulRequests,
			Failed:    m.FailedRequests,
			Skipped:   m.RejectedRequests,
			Opens:     m.CircuitOpens,
			Closes:    m.CircuitCloses,
		})
	}
	return stats
}

func isAppError(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
