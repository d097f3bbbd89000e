package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/proximalabs/proxima-go/internal/infrastructure/config"
)

const (
	// Namespace for all metrics
	namespace = "proxima"
	// Subsystem for daemon metrics
	subsystem = "daemon"
)

// Registry is the global Prometheus registry for all metrics. Nil when
// metrics are disabled.
var Registry *prometheus.Registry

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry
// Returns nil if metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// Serve exposes the registry over HTTP. Blocks; callers run it in a
// goroutine.
func Serve(cfg config.MetricsConfig) error {
	if Registry == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return http.ListenAndServe(addr, mux)
}
