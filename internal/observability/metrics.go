// Package observability holds the process-wide Prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchTotal counts poll cycles by source and result (ok, error, skipped).
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestats_fetch_total",
		Help: "Poll cycles by source and result",
	}, []string{"source", "result"})

	// FetchDuration tracks how long a complete poll cycle takes.
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "homestats_fetch_duration_seconds",
		Help:    "Duration of one poll cycle",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// SubFetchErrors counts failed slices of a fanned-out cycle.
	SubFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestats_subfetch_errors_total",
		Help: "Failed sub-requests inside a poll cycle",
	}, []string{"source", "slice"})

	// LastSuccess is the unix time of the last successful publish per source.
	LastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "homestats_last_success_timestamp_seconds",
		Help: "Unix time of the last successful snapshot publish",
	}, []string{"source"})

	// SessionLogins counts login exchanges by source and result.
	SessionLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestats_session_logins_total",
		Help: "Session login exchanges",
	}, []string{"source", "result"})

	// ConfigSyncs counts replica operations by op (save, load, remote_change) and result.
	ConfigSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestats_config_sync_total",
		Help: "Config replica operations",
	}, []string{"op", "result"})

	// ServiceCalls counts Home Assistant write calls by domain/service and result.
	ServiceCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestats_service_calls_total",
		Help: "Home Assistant service calls",
	}, []string{"service", "result"})

	// SSEClients is the number of connected event-stream clients.
	SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "homestats_sse_clients",
		Help: "Connected server-sent event clients",
	})
)

// Result label values.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// ResultOf maps an error to a result label.
func ResultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
