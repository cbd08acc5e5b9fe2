// Package mirror copies published frames to Redis so other processes can
// serve the latest frame without running a capture loop of their own.
package mirror

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Egham-7/cloudlines/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	writeTimeout = 500 * time.Millisecond
	seqSuffix    = ":seq"
	typeSuffix   = ":content_type"
)

// RedisMirror is a producer FrameSink that SETs every frame under a fixed key
type RedisMirror struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisMirror parses the URL and builds a client. It does not connect; see Connect.
func NewRedisMirror(cfg *models.MirrorConfig) (*RedisMirror, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("redis mirror is not configured")
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 2 * time.Second
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = time.Second
	opt.WriteTimeout = time.Second
	opt.MaxRetries = 1

	return &RedisMirror{
		client: redis.NewClient(opt),
		key:    cfg.Key,
		ttl:    cfg.TTL,
	}, nil
}

// Connect pings Redis with a few retries
func (m *RedisMirror) Connect(ctx context.Context) error {
	const maxAttempts = 3
	const baseDelay = 1 * time.Second

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = m.Ping(ctx); err == nil {
			fiberlog.Infof("Redis frame mirror connected (attempt %d/%d), key %s", attempt, maxAttempts, m.key)
			return nil
		}

		fiberlog.Warnf("Redis connection failed (attempt %d/%d): %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * baseDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed to connect to Redis after %d attempts: %w", maxAttempts, err)
}

func (m *RedisMirror) Name() string {
	return "redis(" + m.key + ")"
}

// Consume stores the frame bytes plus its sequence number and content type
func (m *RedisMirror) Consume(ctx context.Context, frame *models.Frame) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, m.key, frame.Data, m.ttl)
		pipe.Set(ctx, m.key+seqSuffix, strconv.FormatUint(frame.Seq, 10), m.ttl)
		pipe.Set(ctx, m.key+typeSuffix, frame.ContentType, m.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mirror frame #%d: %w", frame.Seq, err)
	}
	return nil
}

// Ping checks connectivity
func (m *RedisMirror) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return m.client.Ping(ctx).Err()
}

func (m *RedisMirror) Close() error {
	return m.client.Close()
}
