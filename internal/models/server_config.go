package models

import "time"

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string        `json:"port,omitzero" yaml:"port"`
	AllowedOrigins string        `json:"allowed_origins,omitzero" yaml:"allowed_origins"`
	Environment    string        `json:"environment,omitzero" yaml:"environment"`
	LogLevel       string        `json:"log_level,omitzero" yaml:"log_level"`
	BaseURL        string        `json:"base_url,omitzero" yaml:"base_url"`
	ReadTimeout    time.Duration `json:"read_timeout,omitzero" yaml:"read_timeout"`
	// WriteTimeout bounds a whole response, so it also caps stream length. Zero disables it.
	WriteTimeout time.Duration `json:"write_timeout,omitzero" yaml:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout,omitzero" yaml:"idle_timeout"`
}
