// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/dino/internal/config"
)

// Transport is the Watermill publisher and subscriber of one topic.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	// Topic is the subject (nats) or channel (redis, mock) name.
	Topic string

	closers []func() error
}

// Close releases the publisher and subscriber.
func (t *Transport) Close() error {
	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	t.closers = nil
	return errors.Join(errs...)
}

// OpenOptions carries the shared resources a backend may need.
type OpenOptions struct {
	// Redis is required for queue.type=redis.
	Redis redis.UniversalClient
	// GoChannel is used for queue.type=mock; a private one is created when
	// nil. Nodes sharing one GoChannel form an in-process cluster.
	GoChannel *gochannel.GoChannel
	// Embedded is the in-process NATS server used when queue.embedded is
	// set.
	Embedded *EmbeddedServer
	Logger   watermill.LoggerAdapter
}

// Open connects the backend configured in q.
func Open(ctx context.Context, q config.QueueConfig, opts OpenOptions) (*Transport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	switch q.Type {
	case config.QueueNATS:
		url := NATSURL(q)
		if q.Embedded {
			if opts.Embedded == nil {
				return nil, fmt.Errorf("%w: embedded nats requested but no server was started", ErrUnknownBackend)
			}
			url = opts.Embedded.ClientURL()
		}
		return newNATSTransport(url, q.Exchange, logger)

	case config.QueueRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("%w: redis backend needs a client", ErrUnknownBackend)
		}
		if err := opts.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis bus: %w", err)
		}
		ps := NewRedisPubSub(opts.Redis, logger)
		return &Transport{
			Publisher:  ps,
			Subscriber: ps,
			Topic:      q.Exchange,
			closers:    []func() error{ps.Close},
		}, nil

	case config.QueueMock:
		return NewMockTransport(opts.GoChannel, q.Exchange, logger), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, q.Type)
	}
}

// NewGoChannel returns the in-process pub/sub used by the mock backend.
func NewGoChannel(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
}

// NewMockTransport binds topic to ch. A nil ch gets a private GoChannel
// that the transport closes; a shared one is left open.
func NewMockTransport(ch *gochannel.GoChannel, topic string, logger watermill.LoggerAdapter) *Transport {
	t := &Transport{Topic: topic}
	if ch == nil {
		ch = NewGoChannel(logger)
		t.closers = append(t.closers, ch.Close)
	}
	t.Publisher = ch
	t.Subscriber = ch
	return t
}
