package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ProtocolHttp = "http"
	ProtocolGrpc = "grpc"

	defaultMetricInterval = time.Second * 5
	exporterDialTimeout   = time.Second * 3
)

// OtlpExporter is where one signal (traces or metrics) is shipped to.
type OtlpExporter struct {
	// full url, e.g. http://localhost:4318 (http) or http://localhost:4317 (grpc)
	Endpoint string `json:"endpoint"`
	// http (default) or grpc
	Protocol string            `json:"protocol"`
	Headers  map[string]string `json:"headers"`
	// plaintext connection, for a collector on the same host
	Insecure bool `json:"insecure"`
}

func (e OtlpExporter) enabled() bool {
	return e.Endpoint != ""
}

func (e OtlpExporter) protocol() string {
	if e.Protocol == "" {
		return ProtocolHttp
	}
	return e.Protocol
}

func (e OtlpExporter) validate(signal string) error {
	if !e.enabled() {
		return nil
	}
	switch e.protocol() {
	case ProtocolHttp, ProtocolGrpc:
		return nil
	}
	return fmt.Errorf("otlp.%s.protocol must be http or grpc, got %q", signal, e.Protocol)
}

type OtlpConfig struct {
	Traces  OtlpExporter `json:"traces"`
	Metrics OtlpExporter `json:"metrics"`
	// how often metrics are pushed, the last batch is always pushed on shutdown
	MetricIntervalSeconds int `json:"metric_interval_seconds"`
}

func (c OtlpConfig) Validate() error {
	var errlist []error
	errlist = append(errlist, c.Traces.validate("traces"), c.Metrics.validate("metrics"))
	if c.MetricIntervalSeconds < 0 {
		errlist = append(errlist, fmt.Errorf("otlp.metric_interval_seconds must not be negative"))
	}
	return errors.Join(errlist...)
}

func (c OtlpConfig) metricInterval() time.Duration {
	if c.MetricIntervalSeconds <= 0 {
		return defaultMetricInterval
	}
	return time.Duration(c.MetricIntervalSeconds) * time.Second
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func newTraceProvider(ctx context.Context, r *resource.Resource, exp OtlpExporter) (*trace.TracerProvider, error) {
	exporter, err := newSpanExporter(ctx, exp)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

func newSpanExporter(ctx context.Context, exp OtlpExporter) (trace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterDialTimeout)
	defer cancel()

	slog.Debug(
		"trace exporter initialized",
		"protocol", exp.protocol(),
		"endpoint", exp.Endpoint,
		"insecure", exp.Insecure,
	)

	if exp.protocol() == ProtocolGrpc {
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpointURL(exp.Endpoint),
			otlptracegrpc.WithHeaders(exp.Headers),
		}
		if exp.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(exp.Endpoint),
		otlptracehttp.WithHeaders(exp.Headers),
	}
	if exp.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func newMeterProvider(ctx context.Context, r *resource.Resource, c OtlpConfig) (*metric.MeterProvider, error) {
	exporter, err := newMetricExporter(ctx, c.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	reader := metric.NewPeriodicReader(exporter, metric.WithInterval(c.metricInterval()))
	return metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithResource(r),
	), nil
}

func newMetricExporter(ctx context.Context, exp OtlpExporter) (metric.Exporter, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterDialTimeout)
	defer cancel()

	slog.Debug(
		"metric exporter initialized",
		"protocol", exp.protocol(),
		"endpoint", exp.Endpoint,
		"insecure", exp.Insecure,
	)

	if exp.protocol() == ProtocolGrpc {
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(exp.Endpoint),
			otlpmetricgrpc.WithHeaders(exp.Headers),
		}
		if exp.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(exp.Endpoint),
		otlpmetrichttp.WithHeaders(exp.Headers),
	}
	if exp.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}
