package api

import (
	"github.com/Egham-7/cloudlines/internal/services/stream"

	"github.com/gofiber/fiber/v2"
)

// StatsHandler reports producer counters and connected viewers
type StatsHandler struct {
	producer ProducerStatus
	registry *stream.Registry
}

func NewStatsHandler(producer ProducerStatus, registry *stream.Registry) *StatsHandler {
	return &StatsHandler{
		producer: producer,
		registry: registry,
	}
}

func (h *StatsHandler) Stats(c *fiber.Ctx) error {
	subscribers := h.registry.List()

	return c.JSON(fiber.Map{
		"producer": fiber.Map{
			"running": h.producer.Running(),
			"stats":   h.producer.Stats(),
			"sinks":   h.producer.SinkStats(),
		},
		"subscribers": fiber.Map{
			"active":  len(subscribers),
			"viewers": subscribers,
		},
	})
}
