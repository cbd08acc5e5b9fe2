// Package config wires a cloudlines configuration into a running server.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/Egham-7/cloudlines/internal/api"
	"github.com/Egham-7/cloudlines/internal/config"
	"github.com/Egham-7/cloudlines/internal/services/encoder"
	"github.com/Egham-7/cloudlines/internal/services/framestore"
	"github.com/Egham-7/cloudlines/internal/services/mirror"
	"github.com/Egham-7/cloudlines/internal/services/producer"
	"github.com/Egham-7/cloudlines/internal/services/source"
	"github.com/Egham-7/cloudlines/internal/services/stream"
	"github.com/Egham-7/cloudlines/pkg/builder"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"
)

const (
	streamPath   = "/api/stream"
	latestPath   = "/api/latest"
	statsPath    = "/api/stats"
	healthPath   = "/health"
	shutdownWait = 30 * time.Second
)

// Caster is a cloudlines server instance: one frame producer plus the HTTP
// endpoints that fan its frames out to viewers.
type Caster struct {
	config   *config.Config
	builder  *builder.Builder
	app      *fiber.App
	store    *framestore.Store
	registry *stream.Registry
	producer *producer.Producer
	mirror   *mirror.RedisMirror

	// source overrides the configured source when set (tests, embedding)
	source source.Source
}

// NewCaster creates a new Caster with the given configuration.
// The cfg parameter is required and must not be nil.
func NewCaster(cfg *config.Config) *Caster {
	if cfg == nil {
		panic("config cannot be nil - use config.LoadFromFile() or the builder to create config")
	}

	return &Caster{
		config:   cfg,
		store:    framestore.New(),
		registry: stream.NewRegistry(),
	}
}

// NewCasterWithBuilder creates a Caster from a builder, keeping its middlewares and rate limit.
func NewCasterWithBuilder(b *builder.Builder) *Caster {
	c := NewCaster(b.Build())
	c.builder = b
	return c
}

// WithSource replaces the configured frame source
func (c *Caster) WithSource(src source.Source) *Caster {
	c.source = src
	return c
}

// Store exposes the frame store, e.g. for embedding applications that read frames directly
func (c *Caster) Store() *framestore.Store {
	return c.store
}

// Run starts the caster and blocks until SIGINT/SIGTERM or a fatal error.
func (c *Caster) Run() error {
	return c.RunContext(context.Background())
}

// RunContext is Run with an external cancellation context
func (c *Caster) RunContext(ctx context.Context) error {
	validate := c.config.Validate
	if c.source != nil {
		validate = c.config.ValidateWithoutSource
	}
	if err := validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogLevel(c.config)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.initialize(ctx); err != nil {
		return err
	}
	if c.mirror != nil {
		defer func() {
			if err := c.mirror.Close(); err != nil {
				fiberlog.Errorf("Failed to close Redis client: %v", err)
			}
		}()
	}

	listenAddr := ":" + c.config.Server.Port
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}

	fmt.Printf("🚀 Cloudlines starting on %s\n", ln.Addr())
	fmt.Printf("   Environment: %s\n", c.config.Server.Environment)
	fmt.Printf("   Go version: %s\n", runtime.Version())
	fmt.Printf("   GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.producer.Run(gctx)
	})

	g.Go(func() error {
		if err := c.app.Listener(ln); err != nil && gctx.Err() == nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fiberlog.Info("Server shutting down gracefully...")
		// Closing the listener covers a Listener call that has not started yet.
		_ = ln.Close()
		if err := c.app.ShutdownWithTimeout(shutdownWait); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		fiberlog.Info("Server shutdown completed successfully")
		return nil
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// initialize builds the pipeline and the HTTP app
func (c *Caster) initialize(ctx context.Context) error {
	src := c.source
	if src == nil {
		var err error
		src, err = source.New(c.config.Capture.Source)
		if err != nil {
			return fmt.Errorf("failed to create frame source: %w", err)
		}
	}

	var sinks []producer.FrameSink
	if c.config.Mirror.Enabled() {
		m, err := mirror.NewRedisMirror(c.config.Mirror)
		if err != nil {
			return fmt.Errorf("failed to create Redis mirror: %w", err)
		}
		if err := m.Connect(ctx); err != nil {
			_ = m.Close()
			return err
		}
		c.mirror = m
		sinks = append(sinks, m)
	} else {
		fiberlog.Info("Redis not configured - frame mirror disabled")
	}

	enc := encoder.NewJPEGEncoder(c.config.Capture.Encoder)
	c.producer = producer.New(src, enc, c.store, c.config.Capture, sinks...)

	c.app = createFiberApp(c.config)
	setupMiddleware(c.app, c.config, c.builder)
	c.setupRoutes()

	return nil
}

func createFiberApp(cfg *config.Config) *fiber.App {
	isProd := cfg.IsProduction()

	return fiber.New(fiber.Config{
		AppName:               "Cloudlines v1.0",
		EnablePrintRoutes:     !isProd,
		DisableStartupMessage: isProd,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		ReadBufferSize:        8192,
		WriteBufferSize:       8192,
		Prefork:               false,
		CaseSensitive:         true,
		StrictRouting:         false,
		Network:               "tcp",
		ServerHeader:          "Cloudlines",
	})
}

// isFramePath reports whether a request is served raw image data, which must
// not be compressed or buffered.
func isFramePath(c *fiber.Ctx) bool {
	path := c.Path()
	return path == streamPath || path == latestPath
}

func setupMiddleware(app *fiber.App, cfg *config.Config, b *builder.Builder) {
	isProd := cfg.IsProduction()

	// Recover middleware (must be first)
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !isProd,
	}))

	maxRequests, expiration := 600, 1*time.Minute
	keyFunc := func(c *fiber.Ctx) string { return c.IP() }
	if b != nil && b.GetRateLimitConfig() != nil {
		rlCfg := b.GetRateLimitConfig()
		maxRequests, expiration = rlCfg.Max, rlCfg.Expiration
		if rlCfg.KeyFunc != nil {
			keyFunc = rlCfg.KeyFunc
		}
	}
	app.Use(limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == healthPath
		},
		Max:               maxRequests,
		Expiration:        expiration,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      keyFunc,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fmt.Sprintf("%d requests per %v", maxRequests, expiration),
			})
		},
	}))

	app.Use(compress.New(compress.Config{
		Next:  isFramePath,
		Level: compress.LevelBestSpeed,
	}))

	if isProd {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency} ${bytesSent}b\n",
			Output: os.Stdout,
		}))
	} else {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${error}\n",
			Output: os.Stdout,
		}))
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowHeaders:  strings.Join([]string{"Origin", "Content-Type", "Accept", "User-Agent"}, ", "),
		AllowMethods:  "GET, HEAD, OPTIONS",
		MaxAge:        86400,
		ExposeHeaders: "Content-Length, Content-Type, X-Frame-Seq",
	}))

	if b != nil {
		for _, middleware := range b.GetMiddlewares() {
			app.Use(middleware)
		}
	}

	// Profiler (dev only)
	if !isProd {
		app.Use(pprof.New())
	}
}

func (c *Caster) setupRoutes() {
	streamSvc := stream.NewService(c.store, c.registry, c.config.Stream)

	var mirrorPinger api.Pinger
	if c.mirror != nil {
		mirrorPinger = c.mirror
	}

	c.app.Get(healthPath, api.NewHealthHandler(c.producer, c.registry, mirrorPinger).HealthCheck)
	c.app.Get(streamPath, api.NewStreamHandler(streamSvc).Stream)
	c.app.Get(latestPath, api.NewSnapshotHandler(c.store).Latest)
	c.app.Get(statsPath, api.NewStatsHandler(c.producer, c.registry).Stats)
	c.app.Get("/", welcomeHandler(c.config))
}

func setupLogLevel(cfg *config.Config) {
	logLevel := cfg.GetNormalizedLogLevel()

	switch logLevel {
	case "trace":
		fiberlog.SetLevel(fiberlog.LevelTrace)
	case "debug":
		fiberlog.SetLevel(fiberlog.LevelDebug)
	case "info":
		fiberlog.SetLevel(fiberlog.LevelInfo)
	case "warn", "warning":
		fiberlog.SetLevel(fiberlog.LevelWarn)
	case "error":
		fiberlog.SetLevel(fiberlog.LevelError)
	case "fatal":
		fiberlog.SetLevel(fiberlog.LevelFatal)
	case "panic":
		fiberlog.SetLevel(fiberlog.LevelPanic)
	default:
		fiberlog.SetLevel(fiberlog.LevelInfo)
		fiberlog.Warnf("Unknown log level '%s', defaulting to 'info'", logLevel)
	}

	fiberlog.Infof("Log level set to: %s", logLevel)
}

func welcomeHandler(cfg *config.Config) fiber.Handler {
	base := strings.TrimSuffix(cfg.Server.BaseURL, "/")

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":    "Welcome to Cloudlines!",
			"version":    "1.0.0",
			"go_version": runtime.Version(),
			"status":     "running",
			"endpoints": fiber.Map{
				"stream": base + streamPath,
				"latest": base + latestPath,
				"stats":  base + statsPath,
				"health": base + healthPath,
			},
		})
	}
}
