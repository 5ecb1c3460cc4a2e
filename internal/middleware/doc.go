// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
Package middleware provides the infrastructure HTTP middleware mounted by
the REST surface.

  - RequestID: reuses or generates X-Request-ID and stores it in the context
    so logging.Ctx tags every log line of the request.
  - PrometheusMetrics: request counts, latency histograms and in-flight
    gauge, labelled by chi route pattern.
  - Compression: gzip for the history endpoints.

All middleware have the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.With(middleware.Compression).Get("/history", h.History)
*/
package middleware
