// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package services

import (
	"context"
	"time"
)

// QueuePublisher is satisfied by *bus.Publisher.
type QueuePublisher interface {
	Serve(ctx context.Context) error
	Close()
	Flush(ctx context.Context)
}

// PublisherService runs the bus publisher. On stop it refuses new events
// and sends what is still queued, bounded by drainTimeout.
type PublisherService struct {
	publisher    QueuePublisher
	drainTimeout time.Duration
}

// NewPublisherService wraps p.
func NewPublisherService(p QueuePublisher, drainTimeout time.Duration) *PublisherService {
	if drainTimeout <= 0 {
		drainTimeout = 5 * time.Second
	}
	return &PublisherService{publisher: p, drainTimeout: drainTimeout}
}

// Serve implements suture.Service.
func (s *PublisherService) Serve(ctx context.Context) error {
	err := s.publisher.Serve(ctx)
	if ctx.Err() == nil {
		// Crashed; suture restarts it and the queue is kept.
		return err
	}
	s.publisher.Close()
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.drainTimeout)
	defer cancel()
	s.publisher.Flush(drainCtx)
	return ctx.Err()
}

func (s *PublisherService) String() string {
	return "bus-publisher"
}
