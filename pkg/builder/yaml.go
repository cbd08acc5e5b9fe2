package builder

import (
	"github.com/Egham-7/cloudlines/internal/config"

	"github.com/gofiber/fiber/v2"
)

// FromYAML loads env files (if any) and a YAML config into a builder for further tweaking
func FromYAML(path string, envFiles []string) (*Builder, error) {
	if len(envFiles) > 0 {
		config.LoadEnvFiles(envFiles)
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	return &Builder{
		cfg:         cfg,
		middlewares: []fiber.Handler{},
	}, nil
}
