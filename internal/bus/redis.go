// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisPubSub is a Watermill publisher and subscriber over Redis
// PUBLISH/SUBSCRIBE. Redis pub/sub is fire-and-forget: a nacked message is
// logged, never redelivered.
type RedisPubSub struct {
	client redis.UniversalClient
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	closed  bool
	closing chan struct{}
	wg      sync.WaitGroup
}

var (
	_ message.Publisher  = (*RedisPubSub)(nil)
	_ message.Subscriber = (*RedisPubSub)(nil)
)

// redisEnvelope keeps the Watermill uuid and metadata next to the payload.
type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  json.RawMessage   `json:"payload"`
}

// NewRedisPubSub wraps client. The client is owned by the caller.
func NewRedisPubSub(client redis.UniversalClient, logger watermill.LoggerAdapter) *RedisPubSub {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &RedisPubSub{client: client, logger: logger, closing: make(chan struct{})}
}

// Publish implements message.Publisher. The message context bounds each
// PUBLISH.
func (r *RedisPubSub) Publish(topic string, msgs ...*message.Message) error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	for _, msg := range msgs {
		data, err := json.Marshal(redisEnvelope{UUID: msg.UUID, Metadata: msg.Metadata, Payload: json.RawMessage(msg.Payload)})
		if err != nil {
			return fmt.Errorf("encode message %s: %w", msg.UUID, err)
		}
		if err := r.client.Publish(msg.Context(), topic, data).Err(); err != nil {
			return fmt.Errorf("publish message %s: %w", msg.UUID, err)
		}
	}
	return nil
}

// Subscribe implements message.Subscriber. Each call opens its own Redis
// subscription, so every subscriber sees every message.
func (r *RedisPubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.wg.Add(1)
	r.mu.Unlock()

	ps := r.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		r.wg.Done()
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	out := make(chan *message.Message)
	go func() {
		defer r.wg.Done()
		defer close(out)
		defer ps.Close()
		r.forward(ctx, topic, ps.Channel(), out)
	}()
	return out, nil
}

func (r *RedisPubSub) forward(ctx context.Context, topic string, in <-chan *redis.Message, out chan<- *message.Message) {
	for {
		var raw *redis.Message
		select {
		case <-ctx.Done():
			return
		case <-r.closing:
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			raw = m
		}

		var env redisEnvelope
		if err := json.Unmarshal([]byte(raw.Payload), &env); err != nil {
			r.logger.Error("Dropping undecodable redis message", err, watermill.LogFields{"topic": topic})
			continue
		}
		msg := message.NewMessage(env.UUID, message.Payload(env.Payload))
		for k, v := range env.Metadata {
			msg.Metadata.Set(k, v)
		}
		msgCtx, cancel := context.WithCancel(ctx)
		msg.SetContext(msgCtx)

		select {
		case out <- msg:
		case <-ctx.Done():
			cancel()
			return
		case <-r.closing:
			cancel()
			return
		}

		select {
		case <-msg.Acked():
		case <-msg.Nacked():
			r.logger.Info("Redis message nacked, not redelivered", watermill.LogFields{"topic": topic, "uuid": msg.UUID})
		case <-ctx.Done():
		case <-r.closing:
		}
		cancel()
	}
}

// Close stops every subscription. The Redis client stays open.
func (r *RedisPubSub) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.closing)
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}
