package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// Shutdown flushes anything that hasn't been exported yet, it is safe
// to call on a zero Telemetry.
func (t Telemetry) Shutdown(ctx context.Context) error {
	errlist := []error{}
	if t.TracerProvider != nil {
		err := t.TracerProvider.Shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	if t.MeterProvider != nil {
		err := t.MeterProvider.Shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Setup installs the global tracer and meter providers. Traces and metrics
// are only exported when an endpoint is configured for them, otherwise the
// otel no-op providers stay in place.
func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	var tel Telemetry
	err := config.Otlp.Validate()
	if err != nil {
		return tel, err
	}

	r, err := newResource(serviceName)
	if err != nil {
		return tel, err
	}

	if config.Otlp.Traces.enabled() {
		tel.TracerProvider, err = newTraceProvider(ctx, r, config.Otlp.Traces)
		if err != nil {
			return tel, err
		}
		otel.SetTracerProvider(tel.TracerProvider)
	}

	if config.Otlp.Metrics.enabled() {
		tel.MeterProvider, err = newMeterProvider(ctx, r, config.Otlp)
		if err != nil {
			return tel, err
		}
		otel.SetMeterProvider(tel.MeterProvider)
	}

	return tel, nil
}
