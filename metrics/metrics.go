// Package metrics exposes the gateway's Prometheus metrics on a dedicated
// HTTP server.
package metrics

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsServer struct {
	registry *prometheus.Registry
	srv      *http.Server

	requestsTotal      *prometheus.CounterVec
	lookupsTotal       *prometheus.CounterVec
	verificationsTotal *prometheus.CounterVec
}

// New creates a metrics server listening on addr. Metric names are prefixed
// with namespace, with dashes replaced by underscores.
func New(namespace, addr string) (*MetricsServer, error) {
	namespace = strings.ReplaceAll(namespace, "-", "_")

	m := &MetricsServer{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of gateway API requests by route and status code",
		}, []string{"route", "code"}),
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_lookups_total",
			Help:      "Total number of schema and attestation lookups by kind and result",
		}, []string{"kind", "result"}),
		verificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offchain_verifications_total",
			Help:      "Total number of off-chain attestation verifications by outcome",
		}, []string{"outcome"}),
	}

	if err := m.registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := m.registry.Register(m.requestsTotal); err != nil {
		return nil, err
	}
	if err := m.registry.Register(m.lookupsTotal); err != nil {
		return nil, err
	}
	if err := m.registry.Register(m.verificationsTotal); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	m.srv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsServer) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *MetricsServer) ObserveRequest(route string, code int) {
	m.requestsTotal.WithLabelValues(route, http.StatusText(code)).Inc()
}

// ObserveLookup counts a schema or attestation lookup; result is one of
// "found", "not_found" or "error".
func (m *MetricsServer) ObserveLookup(kind, result string) {
	m.lookupsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveVerification counts an off-chain verification; outcome is one of
// "valid", "invalid" or "malformed".
func (m *MetricsServer) ObserveVerification(outcome string) {
	m.verificationsTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
