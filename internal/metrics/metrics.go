// Package metrics exposes Prometheus instruments for ingestion and storage.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "picklewickel"

var (
	// ScrapeIngest counts reconciler outcomes by operation (created, updated,
	// dry_run, rejected, bulk_update).
	ScrapeIngest = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_ingest_total",
		Help:      "Scraped match payloads processed, by outcome.",
	}, []string{"operation"})

	// CSVRows counts CSV rows by outcome (valid, duplicate, error).
	CSVRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "csv_rows_total",
		Help:      "CSV import rows, by outcome.",
	}, []string{"outcome"})

	// MatchEvents counts published match mutation events by type.
	MatchEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "match_events_total",
		Help:      "Match mutation events published, by event type.",
	}, []string{"type"})

	// RateLimited counts requests rejected by the ingest rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected with 429 by the ingest rate limiter.",
	})

	storeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_operation_seconds",
		Help:      "Key-value store operation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "collection", "result"})
)

// ObserveStore records the latency of one store call.
func ObserveStore(op, collection string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeDuration.WithLabelValues(op, collection, result).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
