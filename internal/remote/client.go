// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package remote holds the HTTP clients of services the chat node consults
// while routing messages: the whisper contact policy and the spam
// classifier. Both sit behind a circuit breaker so a slow or failing
// service turns into fast errors instead of stalled sockets.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/metrics"
)

// ErrUnavailable is returned while the breaker is open or when the service
// answers with a non-2xx status.
var ErrUnavailable = errors.New("remote service unavailable")

const maxResponseBytes = 64 << 10

// client posts JSON through a breaker.
type client struct {
	url     string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func newClient(name, url string, timeout time.Duration, maxFailures uint32) *client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if maxFailures == 0 {
		maxFailures = 5
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from, to)
			logging.Warn().
				Str("breaker", name).
				Str("from", metrics.BreakerStateString(from)).
				Str("to", metrics.BreakerStateString(to)).
				Msg("Remote circuit breaker changed state")
		},
	})

	return &client{
		url:     strings.TrimSuffix(url, "/"),
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

// post sends body as JSON to path and decodes the reply into out.
func (c *client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	data, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return data, nil
	})
	metrics.RecordBreakerResult(c.breaker.Name(), err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// State reports the breaker state.
func (c *client) State() string {
	return metrics.BreakerStateString(c.breaker.State())
}
