// Package metrics exposes Prometheus metrics for the framelens proxy.
package metrics

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teslashibe/framelens/pkg/inference"
)

const (
	namespace = "framelens"
	subsystem = "proxy"
)

var (
	once sync.Once

	// RequestsTotal counts analysis requests by transport and response status.
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_total",
		Help:      "Total number of analysis requests, labeled by transport (http, ws) and response status.",
	}, []string{"transport", "status"})

	// InferenceDurationSeconds is the time spent in the inference provider per call.
	InferenceDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "inference_duration_seconds",
		Help:      "Time spent waiting on the inference provider, labeled by provider and result (ok, rate_limited, unauthorized, upstream_error, error).",
		Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 13, 20, 30, 60},
	}, []string{"provider", "result"})

	// NormalizationsTotal counts normalized replies by path (json or fallback).
	NormalizationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "normalizations_total",
		Help:      "Total number of model replies normalized, labeled by path (json, fallback).",
	}, []string{"path"})

	// WebSocketConnections is the number of open /ws/analyze connections.
	WebSocketConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "websocket_connections",
		Help:      "Current number of open analysis WebSocket connections.",
	})
)

// Register registers proxy metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			InferenceDurationSeconds,
			NormalizationsTotal,
			WebSocketConnections,
		)
	})
}

// ObserveRequest records one finished request.
func ObserveRequest(transport string, status int) {
	RequestsTotal.WithLabelValues(transport, strconv.Itoa(status)).Inc()
}

// Observer feeds analysis events into the package metrics.
type Observer struct{}

// InferenceDone records the duration and outcome of a provider call.
func (Observer) InferenceDone(provider string, d time.Duration, err error) {
	InferenceDurationSeconds.WithLabelValues(provider, inferenceResult(err)).Observe(d.Seconds())
}

// inferenceResult classifies a provider error for the result label.
func inferenceResult(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *inference.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsRateLimited():
			return "rate_limited"
		case apiErr.IsUnauthorized():
			return "unauthorized"
		case apiErr.IsServerError():
			return "upstream_error"
		}
	}
	return "error"
}

// Normalized records which path produced a result.
func (Observer) Normalized(fallback bool) {
	path := "json"
	if fallback {
		path = "fallback"
	}
	NormalizationsTotal.WithLabelValues(path).Inc()
}
