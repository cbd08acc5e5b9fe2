package builder

import "time"

func (b *Builder) Port(port string) *Builder {
	b.cfg.Server.Port = port
	return b
}

func (b *Builder) AllowedOrigins(origins string) *Builder {
	b.cfg.Server.AllowedOrigins = origins
	return b
}

func (b *Builder) Environment(env string) *Builder {
	b.cfg.Server.Environment = env
	return b
}

func (b *Builder) LogLevel(level string) *Builder {
	b.cfg.Server.LogLevel = level
	return b
}

// WriteTimeout caps how long any response, streams included, may take
func (b *Builder) WriteTimeout(timeout time.Duration) *Builder {
	b.cfg.Server.WriteTimeout = timeout
	return b
}
