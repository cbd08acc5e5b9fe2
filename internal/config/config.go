package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Egham-7/cloudlines/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort             = "3000"
	defaultCaptureInterval  = 40 * time.Millisecond
	defaultStreamInterval   = 40 * time.Millisecond
	defaultWarmup           = 1 * time.Second
	defaultSourceTimeout    = 10 * time.Second
	defaultViewportWidth    = 1280
	defaultViewportHeight   = 720
	defaultEncodeWidth      = 640
	defaultEncodeQuality    = 80
	defaultBoundary         = "cloudlinesframe"
	defaultMirrorKey        = "cloudlines:latest"
	defaultMirrorTTL        = 10 * time.Second
	defaultReadTimeout      = 30 * time.Second
	defaultIdleTimeout      = 5 * time.Minute
	maxEncodeQuality        = 100
	minimumCaptureInterval  = time.Millisecond
	environmentProduction   = "production"
	environmentVariableExpr = `\$\{([^}:]+)(?::(-[^}]*))?\}`
)

var envVarPattern = regexp.MustCompile(environmentVariableExpr)

// Config represents the complete application configuration
type Config struct {
	Server  models.ServerConfig  `yaml:"server"`
	Capture models.CaptureConfig `yaml:"capture"`
	Stream  models.StreamConfig  `yaml:"stream"`
	Mirror  *models.MirrorConfig `yaml:"mirror,omitempty"`
}

// LoadFromFile loads configuration from a YAML file with environment variable substitution
func LoadFromFile(configPath string) (*Config, error) {
	cleanPath := filepath.Clean(configPath)

	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration after substituting environment variables and applies defaults
func Parse(data []byte) (*Config, error) {
	content := substituteEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.Capture.Source.Type = models.SourceType(strings.ToLower(string(config.Capture.Source.Type)))
	config.ApplyDefaults()

	return &config, nil
}

// LoadEnvFiles loads environment variables from .env files in order of precedence
// Loads files in the order provided (first has highest priority)
func LoadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				fmt.Printf("Loaded environment variables from %s\n", envFile)
			}
		}
	}
}

// New creates a new Config instance by loading from the specified config file path
func New(configPath string) (*Config, error) {
	return LoadFromFile(configPath)
}

// Default returns a configuration with every default applied and no source configured
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// substituteEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns with environment variables
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""

		if len(submatches) > 2 && submatches[2] != "" {
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// ApplyDefaults fills every unset field with its default value
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if c.Server.AllowedOrigins == "" {
		c.Server.AllowedOrigins = "*"
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaultReadTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = defaultIdleTimeout
	}

	src := &c.Capture.Source
	if src.Viewport.Width == 0 {
		src.Viewport.Width = defaultViewportWidth
	}
	if src.Viewport.Height == 0 {
		src.Viewport.Height = defaultViewportHeight
	}
	if src.Warmup == 0 && src.Type == models.SourceBrowser {
		src.Warmup = defaultWarmup
	}
	if src.Timeout == 0 {
		src.Timeout = defaultSourceTimeout
	}

	if c.Capture.Encoder.Width == 0 {
		c.Capture.Encoder.Width = defaultEncodeWidth
	}
	if c.Capture.Encoder.Quality == 0 {
		c.Capture.Encoder.Quality = defaultEncodeQuality
	}
	if c.Capture.Interval == 0 {
		c.Capture.Interval = defaultCaptureInterval
	}

	if c.Stream.Boundary == "" {
		c.Stream.Boundary = defaultBoundary
	}
	if c.Stream.Interval == 0 {
		c.Stream.Interval = defaultStreamInterval
	}

	if c.Mirror.Enabled() {
		if c.Mirror.Key == "" {
			c.Mirror.Key = defaultMirrorKey
		}
		if c.Mirror.TTL == 0 {
			c.Mirror.TTL = defaultMirrorTTL
		}
	}
}

// GetNormalizedLogLevel returns the log level in lowercase for consistent comparison
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(c.Server.LogLevel)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == environmentProduction
}

// Validate checks if all required configuration values are set
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateWithoutSource is Validate minus the capture.source checks, for
// callers that supply their own frame source.
func (c *Config) ValidateWithoutSource() error {
	return c.validate(false)
}

func (c *Config) validate(checkSource bool) error {
	var missing []string
	var invalid []string

	if c.Server.Port == "" {
		missing = append(missing, "server.port")
	}
	if c.Server.AllowedOrigins == "" {
		missing = append(missing, "server.allowed_origins")
	}

	src := c.Capture.Source
	if checkSource {
		switch src.Type {
		case "":
			missing = append(missing, "capture.source.type")
		case models.SourceBrowser, models.SourceHTTP:
			if src.URL == "" {
				missing = append(missing, "capture.source.url")
			}
		case models.SourceFile:
			if src.Path == "" {
				missing = append(missing, "capture.source.path")
			}
		default:
			invalid = append(invalid, fmt.Sprintf("capture.source.type=%q", src.Type))
		}

		if src.Viewport.Width < 0 || src.Viewport.Height < 0 {
			invalid = append(invalid, "capture.source.viewport")
		}
	}
	if c.Capture.Encoder.Width < 0 {
		invalid = append(invalid, "capture.encoder.width")
	}
	if q := c.Capture.Encoder.Quality; q < 0 || q > maxEncodeQuality {
		invalid = append(invalid, "capture.encoder.quality")
	}
	if c.Capture.Interval < minimumCaptureInterval {
		invalid = append(invalid, "capture.interval")
	}
	if c.Capture.StartupFailureLimit < 0 {
		invalid = append(invalid, "capture.startup_failure_limit")
	}
	if c.Stream.Interval < minimumCaptureInterval {
		invalid = append(invalid, "stream.interval")
	}
	if strings.ContainsAny(c.Stream.Boundary, "\"\r\n") {
		invalid = append(invalid, "stream.boundary")
	}

	if len(missing) > 0 || len(invalid) > 0 {
		return &ValidationError{MissingFields: missing, InvalidFields: invalid}
	}

	fiberlog.Debugf("Configuration validated: source=%s interval=%v stream_interval=%v",
		src.Type, c.Capture.Interval, c.Stream.Interval)

	return nil
}

// ValidationError represents configuration validation errors
type ValidationError struct {
	MissingFields []string
	InvalidFields []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.MissingFields) > 0 {
		parts = append(parts, "missing required configuration fields: "+strings.Join(e.MissingFields, ", "))
	}
	if len(e.InvalidFields) > 0 {
		parts = append(parts, "invalid configuration fields: "+strings.Join(e.InvalidFields, ", "))
	}
	return strings.Join(parts, "; ")
}
