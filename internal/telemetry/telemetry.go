// Package telemetry sets up OpenTelemetry tracing and metrics for the CLI.
//
// Exporter "stdout" writes spans and metrics to the given writer, "otlp" ships
// them over OTLP/HTTP to an endpoint, and "none" (or empty) keeps the otel
// no-op providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// ServiceName identifies leapdb in exported telemetry.
const ServiceName = "leapdb"

// Config selects exporters.
type Config struct {
	Exporter string `koanf:"exporter"`
	Endpoint string `koanf:"endpoint"`
}

// Enabled reports whether telemetry is exported at all.
func (c Config) Enabled() bool {
	return c.Exporter != "" && c.Exporter != "none"
}

func (c Config) validate() error {
	switch c.Exporter {
	case "", "none", "stdout":
		return nil
	case "otlp":
		if c.Endpoint == "" {
			return errors.New("otlp exporter requires an endpoint")
		}
		return nil
	default:
		return fmt.Errorf("unknown telemetry exporter %q (expected none, stdout or otlp)", c.Exporter)
	}
}

// Shutdown flushes and stops the providers created by Init.
type Shutdown func(ctx context.Context) error

// Init registers global tracer and meter providers for cfg. Output of the
// stdout exporter goes to w. The returned Shutdown is never nil.
func Init(ctx context.Context, cfg Config, w io.Writer) (Shutdown, error) {
	noop := func(context.Context) error { return nil }
	if err := cfg.validate(); err != nil {
		return noop, err
	}
	if !cfg.Enabled() {
		return noop, nil
	}

	res, err := newResource()
	if err != nil {
		return noop, fmt.Errorf("failed to create resource: %w", err)
	}

	spanExporter, err := newSpanExporter(ctx, cfg, w)
	if err != nil {
		return noop, fmt.Errorf("failed to create span exporter: %w", err)
	}
	metricExporter, err := newMetricExporter(ctx, cfg, w)
	if err != nil {
		_ = spanExporter.Shutdown(ctx)
		return noop, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

func newResource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
		),
	)
}

func newSpanExporter(ctx context.Context, cfg Config, w io.Writer) (sdktrace.SpanExporter, error) {
	if cfg.Exporter == "otlp" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(hostPort(cfg.Endpoint))}
		if !isHTTPS(cfg.Endpoint) {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
}

func newMetricExporter(ctx context.Context, cfg Config, w io.Writer) (sdkmetric.Exporter, error) {
	if cfg.Exporter == "otlp" {
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(hostPort(cfg.Endpoint))}
		if !isHTTPS(cfg.Endpoint) {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	}
	return stdoutmetric.New(stdoutmetric.WithWriter(w))
}

// hostPort extracts host:port from an endpoint URL
// ("http://collector:4318" -> "collector:4318").
func hostPort(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}

func isHTTPS(endpoint string) bool {
	u, err := url.Parse(endpoint)
	return err == nil && u.Scheme == "https"
}
