// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

// Package metrics exposes prometheus instrumentation for the HTTP surface
// and the graph-mirror side effects.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors on a private registry so tests can
// create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts endpoint requests by endpoint name and outcome
	// ("ok" or "error").
	RequestsTotal *prometheus.CounterVec
	// MirrorUpsertFailures counts best-effort graph upserts that failed.
	MirrorUpsertFailures prometheus.Counter
	// LocatorFailures counts article lookups that failed and degraded.
	LocatorFailures prometheus.Counter
}

// New creates a Metrics with all collectors registered. cacheLen, when
// non-nil, is sampled for the thumbnail cache size gauge.
func New(cacheLen func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikibrowser_requests_total",
			Help: "Requests served, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		MirrorUpsertFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikibrowser_mirror_upsert_failures_total",
			Help: "Graph mirror upserts that failed.",
		}),
		LocatorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikibrowser_locator_failures_total",
			Help: "Article locator lookups that failed.",
		}),
	}

	reg.MustRegister(m.RequestsTotal, m.MirrorUpsertFailures, m.LocatorFailures)

	if cacheLen != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "wikibrowser_thumbnail_cache_entries",
			Help: "Entries held by the thumbnail URL cache.",
		}, cacheLen))
	}

	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
