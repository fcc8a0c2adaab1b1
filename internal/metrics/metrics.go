// Package metrics provides Prometheus metrics for the expconf loader,
// watcher and HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoadTotal counts document loads by outcome (ok/error).
	LoadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expconf_load_total",
		Help: "Total number of configuration loads, by outcome.",
	}, []string{"outcome"})

	// LoadErrorTotal counts failed loads by error kind.
	LoadErrorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expconf_load_error_total",
		Help: "Total number of failed configuration loads, by error kind (parse/reference/schema/io).",
	}, []string{"kind"})

	// ResolveDuration observes end-to-end load latency (read, resolve, validate).
	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "expconf_resolve_duration_seconds",
		Help:    "Duration of a full load: read, anchor resolution and schema validation.",
		Buckets: prometheus.DefBuckets,
	})

	// ReloadTotal counts hot reloads by outcome.
	ReloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expconf_reload_total",
		Help: "Total number of configuration hot reloads, by outcome.",
	}, []string{"outcome"})

	// WatcherEventsTotal counts file watcher events that triggered a reload attempt.
	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expconf_watcher_events_total",
		Help: "Total number of config file change events observed by the watcher.",
	})

	// SnapshotsStoredTotal counts resolved snapshots persisted to the registry.
	SnapshotsStoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expconf_snapshots_stored_total",
		Help: "Total number of resolved configuration snapshots stored.",
	})

	// HTTPRequestsTotal counts API requests by route pattern, method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expconf_http_requests_total",
		Help: "Total number of HTTP requests, by route, method and status code.",
	}, []string{"route", "method", "status"})

	// HTTPRequestDuration observes API request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "expconf_http_request_duration_seconds",
		Help:    "HTTP request duration, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
