// Package metrics exposes Prometheus collectors for the staking vault.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "staking_vault",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staking_vault",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "staking_vault",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	deposits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staking_vault",
			Subsystem: "engine",
			Name:      "deposits_total",
			Help:      "Total number of deposit operations.",
		},
		[]string{"status"},
	)

	withdrawals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staking_vault",
			Subsystem: "engine",
			Name:      "withdrawals_total",
			Help:      "Total number of withdrawal operations.",
		},
		[]string{"tier", "status"},
	)

	txAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staking_vault",
			Subsystem: "tx",
			Name:      "attempts_total",
			Help:      "Transaction submission attempts by outcome.",
		},
		[]string{"outcome"},
	)

	confirmLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "staking_vault",
			Subsystem: "tx",
			Name:      "confirm_duration_seconds",
			Help:      "Time from submission to finality.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 500ms to ~4m
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		deposits,
		withdrawals,
		txAttempts,
		confirmLatency,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, r.URL.Path).Observe(duration.Seconds())
	})
}

// RecordDeposit counts a deposit attempt by outcome.
func RecordDeposit(status string) {
	deposits.WithLabelValues(status).Inc()
}

// RecordWithdrawal counts a withdrawal attempt by tier and outcome.
func RecordWithdrawal(tier, status string) {
	if tier == "" {
		tier = "unknown"
	}
	withdrawals.WithLabelValues(tier, status).Inc()
}

// RecordTxAttempt counts a submission attempt by outcome.
func RecordTxAttempt(outcome string) {
	txAttempts.WithLabelValues(outcome).Inc()
}

// ObserveConfirmLatency records the submission-to-finality latency.
func ObserveConfirmLatency(d time.Duration) {
	if d <= 0 {
		d = time.Millisecond
	}
	confirmLatency.Observe(d.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
