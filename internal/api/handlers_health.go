// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package api

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// HealthCheck checks one dependency for /health/ready.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Health serves liveness and readiness.
type Health struct {
	nodeID  string
	started time.Time
	checks  []HealthCheck
	timeout time.Duration

	// Connections reports open sockets; optional.
	Connections func() int
	// Breakers reports circuit breaker states by name; optional.
	Breakers func() map[string]string
}

// NewHealth creates the health handlers.
func NewHealth(nodeID string, checks ...HealthCheck) *Health {
	return &Health{nodeID: nodeID, started: time.Now(), checks: checks, timeout: 2 * time.Second}
}

type healthReport struct {
	Status      string            `json:"status"`
	NodeID      string            `json:"node_id"`
	Uptime      float64           `json:"uptime_seconds"`
	Connections int               `json:"connections"`
	Checks      map[string]string `json:"checks,omitempty"`
	Breakers    map[string]string `json:"breakers,omitempty"`
}

// Live handles GET /health/live. It never touches dependencies.
func (h *Health) Live(w http.ResponseWriter, r *http.Request) {
	writeOK(w, r, map[string]string{"status": "alive", "node_id": h.nodeID})
}

// Ready handles GET /health/ready. Every check runs concurrently; a single
// failure makes the node unready (HTTP 503).
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report := healthReport{
		Status: "ready",
		NodeID: h.nodeID,
		Uptime: time.Since(h.started).Seconds(),
		Checks: make(map[string]string, len(h.checks)),
	}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range h.checks {
		wg.Add(1)
		go func(c HealthCheck) {
			defer wg.Done()
			result := "ok"
			if err := c.Check(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			report.Checks[c.Name] = result
			if result != "ok" {
				report.Status = "unready"
			}
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	if h.Connections != nil {
		report.Connections = h.Connections()
	}
	if h.Breakers != nil {
		report.Breakers = h.Breakers()
	}

	status := http.StatusOK
	if report.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"status_code": 200, "data": report})
}
