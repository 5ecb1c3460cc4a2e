// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/cache"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/metrics"
)

// Message metadata keys.
const (
	MetaVerb   = "verb"
	MetaOrigin = "origin"
	// MetaFallback marks an external event carried on the internal topic
	// after its own publication failed.
	MetaFallback = "fallback"

	fallbackExternal = "external"

	topicInternal = "internal"
	topicExternal = "external"

	queueSize = 1024
)

// PublisherConfig configures a Publisher.
type PublisherConfig struct {
	NodeID   string
	Internal config.QueueConfig
	External config.QueueConfig
}

type topic struct {
	label     string
	transport *Transport
	breaker   *gobreaker.CircuitBreaker[interface{}]
	timeout   time.Duration
	retries   int
	retryGap  time.Duration
	queue     chan job
}

type job struct {
	ctx        context.Context
	a          *activity.Activity
	noFallback bool
}

// Publisher queues activities for the internal and external topics and
// sends them from one worker per topic. It implements chat.Publisher.
type Publisher struct {
	nodeID   string
	internal *topic
	external *topic

	recentlySent *cache.LRU

	mu      sync.RWMutex
	closed  bool
	serving bool
}

// NewPublisher builds a publisher over the two transports. Serve must run
// for queued activities to be sent.
func NewPublisher(cfg PublisherConfig, internal, external *Transport) (*Publisher, error) {
	if internal == nil || external == nil {
		return nil, fmt.Errorf("%w: both transports are required", ErrUnknownBackend)
	}
	recent := cfg.External.RecentlySent
	if recent < 1 {
		recent = 100
	}
	return &Publisher{
		nodeID:       cfg.NodeID,
		internal:     newTopic(topicInternal, internal, cfg.Internal),
		external:     newTopic(topicExternal, external, cfg.External),
		recentlySent: cache.NewLRU(recent, 0),
	}, nil
}

func newTopic(label string, t *Transport, q config.QueueConfig) *topic {
	timeout := q.PublishTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	retries := q.Retries
	if retries < 1 {
		retries = 1
	}
	return &topic{
		label:     label,
		transport: t,
		breaker:   NewCircuitBreaker(DefaultBreakerConfig("bus-" + label)),
		timeout:   timeout,
		retries:   retries,
		retryGap:  q.RetryGap,
		queue:     make(chan job, queueSize),
	}
}

// PublishInternal queues a for every node. A missing id or origin is
// filled in.
func (p *Publisher) PublishInternal(ctx context.Context, a *activity.Activity) {
	a = a.Clone()
	if a.Origin == "" {
		a.Origin = p.nodeID
	}
	p.enqueue(ctx, p.internal, job{a: a})
}

// PublishExternal queues a for downstream consumers.
func (p *Publisher) PublishExternal(ctx context.Context, a *activity.Activity) {
	p.enqueue(ctx, p.external, job{a: a.Clone()})
}

// retryExternal queues an external event received as a fallback from a
// peer. It is not rerouted again if this node fails too.
func (p *Publisher) retryExternal(ctx context.Context, a *activity.Activity) {
	p.enqueue(ctx, p.external, job{a: a.Clone(), noFallback: true})
}

func (p *Publisher) enqueue(ctx context.Context, t *topic, j job) {
	if j.a.ID == "" {
		j.a.ID = uuid.NewString()
	}
	// The caller's context usually belongs to a socket or request that may
	// end before the worker runs.
	j.ctx = context.WithoutCancel(ctx)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		metrics.RecordPublish(t.label, ErrClosed)
		logging.Ctx(ctx).Warn().Str("topic", t.label).Str("verb", string(j.a.Verb)).Msg("Publisher closed, dropping event")
		return
	}
	select {
	case t.queue <- j:
	default:
		metrics.RecordPublish(t.label, ErrPublishFailed)
		logging.Ctx(ctx).Error().Str("topic", t.label).Str("verb", string(j.a.Verb)).Msg("Publish queue full, dropping event")
	}
}

// Serve sends queued activities until ctx is done. It implements
// suture.Service.
func (p *Publisher) Serve(ctx context.Context) error {
	p.mu.Lock()
	if p.serving {
		p.mu.Unlock()
		return fmt.Errorf("bus publisher already serving")
	}
	p.serving = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.serving = false
		p.mu.Unlock()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.drain(ctx, p.internal, func(j job) { p.deliverInternal(ctx, j) })
	}()
	go func() {
		defer wg.Done()
		p.drain(ctx, p.external, func(j job) { p.deliverExternal(ctx, j) })
	}()
	wg.Wait()
	return ctx.Err()
}

func (p *Publisher) drain(ctx context.Context, t *topic, fn func(job)) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-t.queue:
			fn(j)
		}
	}
}

// Flush sends everything queued so far on the calling goroutine. It is
// used on shutdown after Serve returned.
func (p *Publisher) Flush(ctx context.Context) {
	for {
		select {
		case j := <-p.internal.queue:
			p.deliverInternal(ctx, j)
		case j := <-p.external.queue:
			p.deliverExternal(ctx, j)
		default:
			return
		}
	}
}

// deliverInternal tries the internal topic up to its retry count.
func (p *Publisher) deliverInternal(ctx context.Context, j job) {
	if err := p.sendRetrying(ctx, j.ctx, p.internal, j.a, nil); err != nil {
		logging.Ctx(j.ctx).Error().Err(err).Str("verb", string(j.a.Verb)).Str("id", j.a.ID).Msg("Internal publish failed")
	}
}

// deliverExternal tries the external topic up to its retry count, then
// reroutes the event onto the internal topic.
func (p *Publisher) deliverExternal(ctx context.Context, j job) {
	a := j.a
	if p.recentlySent.Contains(a.ID) {
		logging.Ctx(j.ctx).Debug().Str("id", a.ID).Msg("External event sent recently, skipping")
		return
	}

	err := p.sendRetrying(ctx, j.ctx, p.external, a, nil)
	if err == nil {
		p.recentlySent.Add(a.ID)
		return
	}

	log := logging.Ctx(j.ctx).Warn().Err(err).Str("verb", string(a.Verb)).Str("id", a.ID)
	if j.noFallback {
		log.Msg("External publish failed")
		return
	}
	log.Msg("External publish failed, falling back to internal topic")
	metrics.BusFallbacks.Inc()
	meta := map[string]string{MetaFallback: fallbackExternal, MetaOrigin: p.nodeID}
	if ferr := p.sendRetrying(ctx, j.ctx, p.internal, a, meta); ferr != nil {
		logging.Ctx(j.ctx).Error().Err(ferr).Str("id", a.ID).Msg("Fallback publish failed")
	}
}

// sendRetrying calls send up to t.retries times, waiting t.retryGap between
// attempts. stop ends the waits early.
func (p *Publisher) sendRetrying(stop, ctx context.Context, t *topic, a *activity.Activity, meta map[string]string) error {
	var err error
	for attempt := 1; attempt <= t.retries; attempt++ {
		if err = p.send(ctx, t, a, meta); err == nil {
			return nil
		}
		if attempt == t.retries || !sleep(stop, t.retryGap) {
			break
		}
	}
	return err
}

// send publishes synchronously through the topic breaker.
func (p *Publisher) send(ctx context.Context, t *topic, a *activity.Activity, meta map[string]string) error {
	payload, err := a.Encode()
	if err != nil {
		return fmt.Errorf("encode activity %s: %w", a.ID, err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(MetaVerb, string(a.Verb))
	if a.Origin != "" {
		msg.Metadata.Set(MetaOrigin, a.Origin)
	}
	for k, v := range meta {
		msg.Metadata.Set(k, v)
	}
	sendCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	msg.SetContext(sendCtx)

	_, err = t.breaker.Execute(func() (interface{}, error) {
		return nil, t.transport.Publisher.Publish(t.transport.Topic, msg)
	})
	metrics.RecordBreakerResult(t.breaker.Name(), err)
	metrics.RecordPublish(t.label, err)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, t.label, err)
	}
	return nil
}

// Close stops accepting activities. Transports are closed by their owner.
func (p *Publisher) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// BreakerStates reports the breaker state of each topic.
func (p *Publisher) BreakerStates() map[string]string {
	return map[string]string{
		topicInternal: metrics.BreakerStateString(p.internal.breaker.State()),
		topicExternal: metrics.BreakerStateString(p.external.breaker.State()),
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
