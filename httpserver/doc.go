// Package httpserver runs the provisioning API listener. It mounts the
// broker routes next to operational endpoints (liveness, readiness,
// drain/undrain, optional pprof) and manages the paired Prometheus
// metrics listener and graceful shutdown.
package httpserver
