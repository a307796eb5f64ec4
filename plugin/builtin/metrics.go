package builtin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/drblury/oairouter/plugin"
	"github.com/drblury/oairouter/router"
)

// MetricsPluginName is the chain unit name of the Metrics plugin.
const MetricsPluginName = "metrics"

// Metrics records a request counter and a latency histogram per operation.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg under namespace. Collectors
// already registered by an earlier instance are reused.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operation",
			Name:      "requests_total",
			Help:      "Total requests per OpenAPI operation.",
		},
		[]string{"operation", "method", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "operation",
			Name:      "request_duration_seconds",
			Help:      "Request duration per OpenAPI operation in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "method", "status"},
	)

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Metrics{requests: requests, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) Name() string     { return MetricsPluginName }
func (m *Metrics) Fields() []string { return nil }

func (m *Metrics) Middleware(_ context.Context, req plugin.Request, _ any) (router.Middleware, error) {
	operation := req.Operation.OperationID
	if operation == "" {
		operation = req.Method + " " + req.Endpoint
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			status := strconv.Itoa(rec.status)
			m.requests.WithLabelValues(operation, req.Method, status).Inc()
			m.duration.WithLabelValues(operation, req.Method, status).Observe(time.Since(start).Seconds())
		})
	}, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(p)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
