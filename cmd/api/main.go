package main

import (
	"fmt"
	"os"

	"github.com/Egham-7/cloudlines/internal/config"
	pkgconfig "github.com/Egham-7/cloudlines/pkg/config"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/spf13/pflag"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [options]\n", os.Args[0])
		pflag.PrintDefaults()
	}
	configPath := pflag.String("config", "config.yaml", "path to the YAML configuration file")
	envFiles := pflag.StringSlice("env-file", []string{".env.local", ".env.development", ".env"}, "env files to load, first has highest priority")
	port := pflag.String("port", "", "override server.port")
	pflag.Parse()

	config.LoadEnvFiles(*envFiles)

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		fiberlog.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	caster := pkgconfig.NewCaster(cfg)

	fiberlog.Info("Starting Cloudlines server...")
	if err := caster.Run(); err != nil {
		fiberlog.Fatalf("Server failed: %v", err)
	}
}
