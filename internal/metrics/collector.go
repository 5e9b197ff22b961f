// Package metrics exposes Prometheus metrics for the language server.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.lsp.dev/jsonrpc2"
)

// Namespace prefixes every metric name.
const Namespace = "mockls"

// Message kinds used as the "kind" label.
const (
	KindCall         = "call"
	KindNotification = "notification"
)

// Collector owns a private registry so several servers can coexist in one
// process.
type Collector struct {
	registry *prometheus.Registry

	messagesTotal   *prometheus.CounterVec
	messageDuration *prometheus.HistogramVec
	sessions        prometheus.Gauge
	sessionsTotal   prometheus.Counter
}

// NewCollector creates a collector with Go runtime and process metrics
// already registered.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "messages_total",
				Help:      "JSON-RPC messages handled, by method, kind and outcome",
			},
			[]string{"method", "kind", "outcome"},
		),
		messageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "message_duration_seconds",
				Help:      "Time from receiving a message to replying",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"method"},
		),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "sessions",
			Help:      "Connected clients",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sessions_total",
			Help:      "Clients that have connected since start",
		}),
	}
}

// RecordMessage counts one handled message. The outcome label is "ok", or the
// JSON-RPC error code name for error replies.
func (c *Collector) RecordMessage(method, kind string, err error, d time.Duration) {
	c.messagesTotal.WithLabelValues(method, kind, outcome(err)).Inc()
	c.messageDuration.WithLabelValues(method).Observe(d.Seconds())
}

// SessionOpened records a new connection.
func (c *Collector) SessionOpened() {
	c.sessions.Inc()
	c.sessionsTotal.Inc()
}

// SessionClosed records a closed connection.
func (c *Collector) SessionClosed() {
	c.sessions.Dec()
}

// Registry returns the registry metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case jsonrpc2.MethodNotFound:
			return "method_not_found"
		case jsonrpc2.InvalidParams:
			return "invalid_params"
		case jsonrpc2.InternalError:
			return "internal_error"
		}
	}
	return "error"
}
