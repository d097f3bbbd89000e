package config

// MetricsConfig holds Prometheus exposure configuration
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served
	Enabled bool `mapstructure:"enabled"`

	// Port for the HTTP metrics server
	Port int `mapstructure:"port" validate:"omitempty,min=1024,max=65535"`

	// Host to bind the metrics HTTP server (default: localhost)
	Host string `mapstructure:"host"`

	// Path for the metrics endpoint (default: /metrics)
	Path string `mapstructure:"path"`
}
