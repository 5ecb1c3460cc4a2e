// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/dino/internal/bus"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/sharedstore"
)

// busSet is the messaging layer: both transports, the publisher over them
// and the embedded NATS server when one was started here.
type busSet struct {
	embedded  *bus.EmbeddedServer
	internal  *bus.Transport
	external  *bus.Transport
	publisher *bus.Publisher

	clients []*redis.Client
	channel *gochannel.GoChannel
}

func openBus(ctx context.Context, cfg *config.Config, cacheClient *redis.Client) (*busSet, error) {
	b := &busSet{}
	ok := false
	defer func() {
		if !ok {
			b.Close()
		}
	}()

	logger := logging.NewWatermillAdapter()

	if cfg.Queue.Embedded || cfg.ExtQueue.Embedded {
		q := cfg.Queue
		if !q.Embedded {
			q = cfg.ExtQueue
		}
		srv, err := bus.NewEmbeddedServer("dino-"+cfg.NodeID, q.Host, q.Port)
		if err != nil {
			return nil, fmt.Errorf("embedded nats: %w", err)
		}
		b.embedded = srv
		logging.Info().Str("url", srv.ClientURL()).Msg("Embedded NATS server started")
	}

	var err error
	if b.internal, err = b.open(ctx, cfg.Queue, cacheClient, logger); err != nil {
		return nil, fmt.Errorf("internal queue: %w", err)
	}
	if b.external, err = b.open(ctx, cfg.ExtQueue, cacheClient, logger); err != nil {
		return nil, fmt.Errorf("external queue: %w", err)
	}

	b.publisher, err = bus.NewPublisher(bus.PublisherConfig{
		NodeID:   cfg.NodeID,
		Internal: cfg.Queue,
		External: cfg.ExtQueue,
	}, b.internal, b.external)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("internal", cfg.Queue.Type).
		Str("external", cfg.ExtQueue.Type).
		Msg("Event bus connected")
	ok = true
	return b, nil
}

func (b *busSet) open(ctx context.Context, q config.QueueConfig, cacheClient *redis.Client, logger *logging.WatermillAdapter) (*bus.Transport, error) {
	opts := bus.OpenOptions{Embedded: b.embedded, Logger: logger}
	switch q.Type {
	case config.QueueRedis:
		client, err := b.redisFor(ctx, q, cacheClient)
		if err != nil {
			return nil, err
		}
		opts.Redis = client
	case config.QueueMock:
		// Both topics share one in-process channel so a single node
		// receives its own external events in tests and demos.
		if b.channel == nil {
			b.channel = bus.NewGoChannel(logger)
		}
		opts.GoChannel = b.channel
	}
	return bus.Open(ctx, q, opts)
}

// redisFor reuses the cache client when the queue points at the same
// server, otherwise it connects a new one.
func (b *busSet) redisFor(ctx context.Context, q config.QueueConfig, cacheClient *redis.Client) (*redis.Client, error) {
	addr := hostPort(q.Host, q.Port)
	if cacheClient != nil && cacheClient.Options().Addr == addr && cacheClient.Options().DB == q.DB {
		return cacheClient, nil
	}
	for _, c := range b.clients {
		if c.Options().Addr == addr && c.Options().DB == q.DB {
			return c, nil
		}
	}
	client, err := sharedstore.NewRedisClient(ctx, sharedstore.RedisConfig{
		Addr:     addr,
		Password: q.Password,
		DB:       q.DB,
	})
	if err != nil {
		return nil, err
	}
	b.clients = append(b.clients, client)
	return client, nil
}

// Close closes the publisher side first, then the transports and clients.
// The embedded server is shut down by its supervisor service.
func (b *busSet) Close() {
	var errs []error
	if b.publisher != nil {
		b.publisher.Close()
	}
	for _, t := range []*bus.Transport{b.internal, b.external} {
		if t != nil {
			errs = append(errs, t.Close())
		}
	}
	if b.channel != nil {
		errs = append(errs, b.channel.Close())
	}
	for _, c := range b.clients {
		errs = append(errs, c.Close())
	}
	if b.embedded != nil && b.embedded.IsRunning() {
		errs = append(errs, b.embedded.Shutdown(context.Background()))
	}
	if err := errors.Join(errs...); err != nil {
		logging.Warn().Err(err).Msg("Error closing event bus")
	}
}
