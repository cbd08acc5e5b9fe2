// Package builder provides a fluent way to assemble a cloudlines configuration in code.
package builder

import (
	"github.com/Egham-7/cloudlines/internal/config"
	"github.com/Egham-7/cloudlines/internal/models"

	"github.com/gofiber/fiber/v2"
)

type Builder struct {
	cfg             *config.Config
	middlewares     []fiber.Handler
	rateLimitConfig *models.RateLimitConfig
}

// New returns a builder holding the default configuration. A source must still be chosen.
func New() *Builder {
	return &Builder{
		cfg:         config.Default(),
		middlewares: []fiber.Handler{},
	}
}

// Build fills any remaining defaults and returns the configuration
func (b *Builder) Build() *config.Config {
	b.cfg.ApplyDefaults()
	return b.cfg
}

func (b *Builder) GetMiddlewares() []fiber.Handler {
	return b.middlewares
}

func (b *Builder) GetRateLimitConfig() *models.RateLimitConfig {
	return b.rateLimitConfig
}
