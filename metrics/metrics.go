// Package metrics exposes Prometheus metrics for the provisioning
// service and runs the standalone metrics listener.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels recorded on ProvisionRequests.
const (
	OutcomeSuccess         = "success"
	OutcomeInvalidRequest  = "invalid_request"
	OutcomeBadSignature    = "bad_signature"
	OutcomeNotEligible     = "not_eligible"
	OutcomeNoLocation      = "no_location"
	OutcomeIssuanceFailed  = "issuance_failed"
	OutcomeInternalFailure = "internal_failure"
)

// ProvisionRequests counts provisioning requests by outcome.
var ProvisionRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "provisioning",
	Name:      "requests_total",
	Help:      "Provisioning requests by outcome.",
}, []string{"outcome"})

// DefaultRegionFallbacks counts requests served from the default region
// because geolocation had no data for the caller's address.
var DefaultRegionFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "provisioning",
	Name:      "default_region_fallbacks_total",
	Help:      "Requests routed to the default region due to unresolved geolocation.",
})

// RegistryUpdateFailures counts enrollment-record updates that failed
// after credentials were already issued.
var RegistryUpdateFailures = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "provisioning",
	Name:      "registry_update_failures_total",
	Help:      "Enrollment registry updates that failed after successful issuance.",
})

// MetricsServer serves the Prometheus scrape endpoint on its own
// address.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given service name and listen
// address, registering the provisioning collectors.
func New(name, addr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: name}),
		ProvisionRequests,
		DefaultRegionFallbacks,
		RegistryUpdateFailures,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe starts the metrics listener.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
