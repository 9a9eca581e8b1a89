// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and tracing for the codebook service.
//
// # Description
//
// Metrics are Prometheus collectors registered on a private registry owned by
// each Metrics value, so several services (or tests) can coexist in one
// process without duplicate-registration panics. Metrics include:
//   - HTTP request counters (by route and status)
//   - Answer counters (by matched topic, "fallback" when nothing matched)
//   - Dispatch latency histogram
//
// Tracing is OpenTelemetry; see InitTracer.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "codebook"

// Metrics holds the Prometheus collectors for the service.
//
// # Fields
//
//   - RequestsTotal: Counter of HTTP requests by route and status code
//   - AnswersTotal: Counter of answers by topic
//   - DispatchDurationSeconds: Histogram of rule evaluation time
type Metrics struct {
	// RequestsTotal counts HTTP requests.
	// Labels: route (the gin route template), status (HTTP status code)
	RequestsTotal *prometheus.CounterVec

	// AnswersTotal counts answers produced by the dispatcher.
	// Labels: topic (guidance entry id, or "fallback")
	AnswersTotal *prometheus.CounterVec

	// DispatchDurationSeconds measures rule evaluation plus composition.
	DispatchDurationSeconds prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates the collectors on a fresh registry.
//
// # Description
//
// The registry also carries the Go runtime and process collectors so the
// /metrics endpoint matches what the default registry would expose.
//
// # Outputs
//
//   - *Metrics: Ready to record and serve.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),

		AnswersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "answers_total",
				Help:      "Total answers by matched topic (fallback when no rule matched)",
			},
			[]string{"topic"},
		),

		DispatchDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Time spent evaluating the rule table and composing the answer",
				Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
			},
		),

		registry: reg,
	}
}

// =============================================================================
// Recording Helpers
// =============================================================================

// RecordRequest increments the request counter.
func (m *Metrics) RecordRequest(route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// RecordAnswer increments the answer counter and observes dispatch latency.
func (m *Metrics) RecordAnswer(topic string, elapsed time.Duration) {
	m.AnswersTotal.WithLabelValues(topic).Inc()
	m.DispatchDurationSeconds.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
