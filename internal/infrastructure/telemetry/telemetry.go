// Package telemetry wires OpenTelemetry traces, metrics and logs plus
// Pyroscope profiling for the billing service.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/waterbill/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

// Providers groups every telemetry backend started by Setup
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup starts the providers enabled in cfg. Disabled providers are no-ops,
// so the result is always safe to use and to shut down.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Providers, error) {
	tp, err := NewTracerProvider(ctx, Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		return nil, err
	}

	mp, err := NewMeterProvider(ctx, MetricsConfig{
		Enabled:           cfg.Enabled && cfg.MetricsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ExportInterval:    cfg.MetricsInterval,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		return nil, err
	}

	lp, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           cfg.Enabled && cfg.LogExportEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		return nil, err
	}

	profiler, err := NewProfiler(ProfilerConfig{
		Enabled:         cfg.ProfilingEnabled,
		ServerAddress:   cfg.PyroscopeEndpoint,
		ApplicationName: cfg.ServiceName,
	}, logger)
	if err != nil {
		return nil, err
	}
	if profiler.IsEnabled() {
		if err := tp.EnableSpanProfiles(); err != nil {
			return nil, err
		}
	}

	return &Providers{Tracer: tp, Meter: mp, Logs: lp, Profiler: profiler}, nil
}

// Shutdown flushes and stops every provider, returning all errors joined
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.Tracer.Shutdown(ctx),
		p.Meter.Shutdown(ctx),
		p.Logs.Shutdown(ctx),
		p.Profiler.Stop(),
	)
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// shutdownWithTimeout bounds a provider shutdown to 10s
func shutdownWithTimeout(ctx context.Context, logger *zap.Logger, name string, fn func(context.Context) error) error {
	logger.Info("Shutting down OpenTelemetry " + name)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := fn(shutdownCtx); err != nil {
		logger.Error("Error shutting down "+name, zap.Error(err))
		return fmt.Errorf("failed to shutdown %s: %w", name, err)
	}
	return nil
}
