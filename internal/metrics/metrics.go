// Package metrics declares the Prometheus collectors exposed at /metrics
// and the best-effort Pushgateway push used by the HTTP ingest and
// resegment handlers.
//
// Grounded on service/http_app.py's metric definitions and
// lore_ingest/pushgw.py's push_ingest/push_resegment.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Count of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency (seconds)",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method", "route", "status"})

	IngestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_total",
		Help: "Total ingests by outcome",
	}, []string{"outcome"})

	IngestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "ingest_duration_seconds",
		Help: "Ingest duration (seconds)",
	}, []string{"outcome"})

	ResegmentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resegment_total",
		Help: "Total resegment operations by outcome",
	}, []string{"outcome"})

	ResegmentDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "resegment_duration_seconds",
		Help: "Resegment duration (seconds)",
	}, []string{"outcome"})

	SearchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fts_search_total",
		Help: "Total FTS searches by outcome",
	}, []string{"outcome"})

	SearchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "fts_search_duration_seconds",
		Help: "FTS search latency (seconds)",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration,
		IngestTotal, IngestDuration,
		ResegmentTotal, ResegmentDuration,
		SearchTotal, SearchDuration,
	)
}
