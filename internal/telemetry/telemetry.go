// Package telemetry installs the OpenTelemetry tracer provider used by the
// estimator spans.
//
// Tracing is opt-in: with no OTLP endpoint and stdout export disabled, Setup
// registers nothing and returns a no-op shutdown. The returned shutdown
// flushes pending spans and should be deferred by the caller.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// DefaultServiceName is reported when Config.ServiceName is empty.
const DefaultServiceName = "montecarlo-pi"

// Config selects the span exporter.
type Config struct {
	ServiceName string
	Version     string
	// Endpoint is an OTLP/HTTP URL such as http://localhost:4318.
	Endpoint string
	// Stdout exports spans as JSON to Writer (os.Stderr when nil).
	Stdout bool
	Writer io.Writer
}

// Enabled reports whether Setup will install a provider.
func (c Config) Enabled() bool {
	return c.Endpoint != "" || c.Stdout
}

// Setup initialises tracing. The OTLP endpoint wins over stdout export when
// both are configured.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if !cfg.Enabled() {
		return noop, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return noop, err
	}

	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(name),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint != "" {
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		return exp, nil
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("stdout exporter: %w", err)
	}
	return exp, nil
}
