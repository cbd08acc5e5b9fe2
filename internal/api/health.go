package api

import (
	"context"
	"time"

	"github.com/Egham-7/cloudlines/internal/models"
	"github.com/Egham-7/cloudlines/internal/services/stream"

	"github.com/gofiber/fiber/v2"
)

// ProducerStatus is the part of the producer the health and stats endpoints read
type ProducerStatus interface {
	Running() bool
	Stats() models.FrameStats
	SinkStats() []models.SinkStats
}

// Pinger is implemented by optional infrastructure such as the Redis mirror
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	producer ProducerStatus
	registry *stream.Registry
	mirror   Pinger
}

// NewHealthHandler creates a new health check handler. mirror may be nil.
func NewHealthHandler(producer ProducerStatus, registry *stream.Registry, mirror Pinger) *HealthHandler {
	return &HealthHandler{
		producer: producer,
		registry: registry,
		mirror:   mirror,
	}
}

// HealthCheck returns the health status of the service and its dependencies
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	stats := h.producer.Stats()
	producerStatus := h.checkProducer(stats)
	mirrorStatus := h.checkMirror(c.UserContext())
	sinkStatus := checkSinks(h.producer.SinkStats())

	overallStatus := "healthy"
	statusCode := fiber.StatusOK

	switch {
	case producerStatus == "stopped":
		overallStatus = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
	case producerStatus == "starting":
		overallStatus = "starting"
		statusCode = fiber.StatusServiceUnavailable
	case producerStatus != "healthy" || mirrorStatus == "unhealthy" || sinkStatus == "tripped":
		overallStatus = "degraded"
	}

	response := fiber.Map{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": fiber.Map{
			"producer": producerStatus,
			"mirror":   mirrorStatus,
			"sinks":    sinkStatus,
		},
		"frames_published": stats.Published,
		"subscribers":      h.registry.Len(),
	}

	return c.Status(statusCode).JSON(response)
}

// checkProducer maps producer counters to a status string
func (h *HealthHandler) checkProducer(stats models.FrameStats) string {
	switch {
	case !h.producer.Running():
		return "stopped"
	case stats.Published == 0:
		return "starting"
	case stats.ConsecutiveFailures > 0:
		return "failing"
	default:
		return "healthy"
	}
}

// checkMirror verifies Redis connectivity when the mirror is enabled
func (h *HealthHandler) checkMirror(ctx context.Context) string {
	if h.mirror == nil {
		return "disabled"
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.mirror.Ping(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

// checkSinks reports "tripped" while any sink breaker is skipping frames
func checkSinks(sinks []models.SinkStats) string {
	if len(sinks) == 0 {
		return "none"
	}
	for _, sink := range sinks {
		if sink.State != "Closed" {
			return "tripped"
		}
	}
	return "healthy"
}
