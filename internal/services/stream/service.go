// Package stream serves the latest frame to any number of viewers, each on
// its own polling loop against the frame store.
package stream

import (
	"time"

	"github.com/Egham-7/cloudlines/internal/models"
	"github.com/Egham-7/cloudlines/internal/services/stream/contracts"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Service attaches viewers to the frame store and tracks them in a registry
type Service struct {
	frames   contracts.FrameReader
	registry *Registry
	cfg      models.StreamConfig
}

func NewService(frames contracts.FrameReader, registry *Registry, cfg models.StreamConfig) *Service {
	return &Service{
		frames:   frames,
		registry: registry,
		cfg:      cfg,
	}
}

// Boundary returns the multipart boundary token
func (s *Service) Boundary() string {
	return s.cfg.Boundary
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// Attach creates and registers a subscriber for a new connection
func (s *Service) Attach(remoteAddr, userAgent string) *Subscriber {
	sub := NewSubscriber(s.frames, s.cfg.Interval, remoteAddr, userAgent)
	s.registry.Add(sub)
	fiberlog.Infof("[%s] Viewer connected from %s (%d active)", sub.ID, remoteAddr, s.registry.Len())
	return sub
}

// Detach closes and deregisters a subscriber
func (s *Service) Detach(sub *Subscriber) {
	sub.Close()
	s.registry.Remove(sub.ID)
}

// Serve runs the subscriber loop and always detaches it afterwards
func (s *Service) Serve(sub *Subscriber, conn contracts.ConnectionState, w contracts.FrameWriter) {
	defer s.Detach(sub)

	err := sub.Run(conn, w)
	info := sub.Info()
	duration := time.Since(sub.ConnectedAt).Round(time.Millisecond)

	if err != nil && !contracts.IsExpectedError(err) {
		fiberlog.Errorf("[%s] Stream error after %v (%d frames): %v", sub.ID, duration, info.FramesSent, err)
		return
	}
	fiberlog.Infof("[%s] Viewer gone after %v: %d frames, %d bytes (%v)",
		sub.ID, duration, info.FramesSent, info.BytesSent, err)
}
