package observability

import (
	"atsmatch/internal/config"
)

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "atsmatch",
			ServiceVersion: version,
			Enabled:        false,
			SampleRate:     1.0,
		}
	}

	obsConfig := cfg.Observability

	serviceVersion := obsConfig.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	sampleRate := obsConfig.SampleRate
	if obsConfig.Tracing.SampleRate > 0 {
		sampleRate = obsConfig.Tracing.SampleRate
	}
	if !obsConfig.Tracing.Enabled {
		sampleRate = 0
	}

	prom := PrometheusConfig{
		Enabled:  obsConfig.Prometheus.Enabled && obsConfig.Metrics.Enabled,
		Endpoint: obsConfig.Prometheus.Endpoint,
		Port:     obsConfig.Prometheus.Port,
	}

	return ObservabilityConfig{
		ServiceName:    obsConfig.ServiceName,
		ServiceVersion: serviceVersion,
		Enabled:        obsConfig.Enabled,
		ConsoleOutput:  obsConfig.ConsoleOutput || obsConfig.Console.Enabled,
		PrettyPrint:    obsConfig.Console.PrettyPrint,
		SampleRate:     sampleRate,
		Prometheus:     prom,
	}
}
