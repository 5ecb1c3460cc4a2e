// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package bus

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/cache"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/metrics"
)

// Handler applies internal events on this node. applied is false when the
// event targets a user with no socket here; such kicks and bans are
// delegated to the other nodes.
type Handler interface {
	HandleInternal(ctx context.Context, a *activity.Activity) (applied bool, err error)
}

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	NodeID string
	// RevisionCap is the highest revision still handled.
	RevisionCap int
	// DedupSize bounds the handled and delegated id sets.
	DedupSize int
	// DedupTTL expires ids from both sets; 0 keeps them until evicted.
	DedupTTL time.Duration

	// Handler retries before an event is given up and acked.
	RetryMax      int
	RetryInterval time.Duration
	CloseTimeout  time.Duration
}

// DefaultConsumerConfig returns production defaults.
func DefaultConsumerConfig(nodeID string) ConsumerConfig {
	return ConsumerConfig{
		NodeID:        nodeID,
		RevisionCap:   3,
		DedupSize:     1000,
		DedupTTL:      10 * time.Minute,
		RetryMax:      2,
		RetryInterval: 50 * time.Millisecond,
		CloseTimeout:  10 * time.Second,
	}
}

// Consumer reads the internal topic and hands events to a Handler.
type Consumer struct {
	cfg       ConsumerConfig
	handler   Handler
	publisher *Publisher
	transport *Transport
	logger    watermill.LoggerAdapter

	handled   *cache.LRU
	delegated *cache.LRU

	ready     chan struct{}
	readyOnce sync.Once
}

// NewConsumer builds a consumer of the internal transport. publisher is
// used to delegate events and to retry external fallbacks.
func NewConsumer(cfg ConsumerConfig, transport *Transport, publisher *Publisher, handler Handler, logger watermill.LoggerAdapter) (*Consumer, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if transport == nil || publisher == nil {
		return nil, fmt.Errorf("%w: consumer needs a transport and a publisher", ErrUnknownBackend)
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if cfg.RevisionCap < 1 {
		cfg.RevisionCap = 3
	}
	if cfg.DedupSize < 1 {
		cfg.DedupSize = 1000
	}
	return &Consumer{
		cfg:       cfg,
		handler:   handler,
		publisher: publisher,
		transport: transport,
		logger:    logger,
		handled:   cache.NewLRU(cfg.DedupSize, cfg.DedupTTL),
		delegated: cache.NewLRU(cfg.DedupSize, cfg.DedupTTL),
		ready:     make(chan struct{}),
	}, nil
}

// Serve runs a Watermill router over the internal topic until ctx is done.
// It implements suture.Service.
func (c *Consumer) Serve(ctx context.Context) error {
	router, err := c.newRouter()
	if err != nil {
		return err
	}
	go func() {
		select {
		case <-router.Running():
			c.readyOnce.Do(func() { close(c.ready) })
		case <-ctx.Done():
		}
	}()
	err = router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Ready is closed once the consumer is subscribed.
func (c *Consumer) Ready() <-chan struct{} {
	return c.ready
}

// newRouter wires middleware outer to inner: give-up (ack after the last
// retry), retry, recoverer.
func (c *Consumer) newRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: c.cfg.CloseTimeout}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(c.giveUp)
	if c.cfg.RetryMax > 0 {
		retry := middleware.Retry{
			MaxRetries:      c.cfg.RetryMax,
			InitialInterval: c.cfg.RetryInterval,
			Multiplier:      2,
			Logger:          c.logger,
		}
		router.AddMiddleware(retry.Middleware)
	}
	router.AddMiddleware(middleware.Recoverer)

	router.AddConsumerHandler("dino-internal-"+c.cfg.NodeID, c.transport.Topic, c.transport.Subscriber, c.Handle)
	return router, nil
}

// giveUp acks a message whose handler still fails after retries. Every node
// receives every internal event, so a redelivery loop on one node would
// only stall it.
func (c *Consumer) giveUp(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err != nil {
			logging.Error().Err(err).Str("uuid", msg.UUID).Str("verb", msg.Metadata.Get(MetaVerb)).Msg("Giving up on internal event")
			return nil, nil
		}
		return out, nil
	}
}

// Handle processes one internal message. It is exported for tests and
// tools that feed messages without a router.
func (c *Consumer) Handle(msg *message.Message) (err error) {
	ctx := msg.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Internal event handler panicked")
			err = nil
		}
	}()

	metrics.BusConsumed.WithLabelValues(topicInternal).Inc()
	a, perr := activity.Parse(msg.Payload)
	if perr != nil {
		metrics.BusParseFailed.Inc()
		logging.Ctx(ctx).Warn().Err(perr).Str("uuid", msg.UUID).Msg("Dropping undecodable internal event")
		return nil
	}
	ctx = logging.ContextWithCorrelationID(ctx, a.ID)

	if msg.Metadata.Get(MetaFallback) == fallbackExternal {
		c.retryFallback(ctx, msg.Metadata.Get(MetaOrigin), a)
		return nil
	}

	if a.Revision > c.cfg.RevisionCap {
		metrics.BusRevisionDropped.Inc()
		logging.Ctx(ctx).Debug().Str("id", a.ID).Int("revision", a.Revision).Msg("Dropping event past revision cap")
		return nil
	}
	if a.ID != "" && c.handled.Contains(a.ID) {
		metrics.BusDeduplicated.Inc()
		return nil
	}

	applied, herr := c.handler.HandleInternal(ctx, a)
	if herr != nil {
		return fmt.Errorf("handle %s %s: %w", a.Verb, a.ID, herr)
	}
	if applied {
		if a.ID != "" {
			c.handled.Add(a.ID)
		}
		return nil
	}
	c.delegate(ctx, a)
	return nil
}

// delegate republishes an event nobody applied here with revision+1. Each
// node delegates a given id at most once.
func (c *Consumer) delegate(ctx context.Context, a *activity.Activity) {
	if a.ID != "" && c.delegated.Seen(a.ID) {
		metrics.BusDeduplicated.Inc()
		return
	}
	next := a.Clone()
	next.Revision++
	if next.Revision > c.cfg.RevisionCap {
		metrics.BusRevisionDropped.Inc()
		logging.Ctx(ctx).Info().Str("id", a.ID).Str("verb", string(a.Verb)).Str("user_id", a.ObjectID()).Msg("No node holds the user, dropping event")
		return
	}
	metrics.BusDelegated.Inc()
	c.publisher.PublishInternal(ctx, next)
}

// retryFallback re-attempts an external event a peer could not publish.
// The node that failed does not retry its own event.
func (c *Consumer) retryFallback(ctx context.Context, origin string, a *activity.Activity) {
	if origin == c.cfg.NodeID || (a.ID != "" && c.handled.Seen("ext:"+a.ID)) {
		return
	}
	c.publisher.retryExternal(ctx, a)
}
