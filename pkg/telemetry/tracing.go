// Package telemetry configures OpenTelemetry tracing for the pipeline.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/openfga/disksearcher/internal/build"
)

type TracerOption func(d *customTracer)

func WithOTLPEndpoint(endpoint string) TracerOption {
	return func(d *customTracer) {
		d.endpoint = endpoint
	}
}

func WithOTLPInsecure() TracerOption {
	return func(d *customTracer) {
		d.insecure = true
	}
}

func WithServiceName(serviceName string) TracerOption {
	return func(d *customTracer) {
		d.serviceName = serviceName
	}
}

func WithSamplingRatio(samplingRatio float64) TracerOption {
	return func(d *customTracer) {
		d.samplingRatio = samplingRatio
	}
}

// WithSpanExporter replaces the OTLP exporter, mostly useful in tests.
func WithSpanExporter(exp sdktrace.SpanExporter) TracerOption {
	return func(d *customTracer) {
		d.exporter = exp
	}
}

type customTracer struct {
	endpoint    string
	insecure    bool
	serviceName string

	samplingRatio float64
	exporter      sdktrace.SpanExporter
}

// NewTracerProvider builds a tracer provider exporting over OTLP/gRPC and
// installs it as the global provider.
func NewTracerProvider(opts ...TracerOption) (TracerProvider, error) {
	tracer := &customTracer{
		serviceName:   build.ProjectName,
		samplingRatio: 0.2,
	}

	for _, opt := range opts {
		opt(tracer)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(tracer.serviceName),
			semconv.ServiceVersionKey.String(build.Version),
		))
	if err != nil {
		return nil, err
	}

	exp := tracer.exporter
	if exp == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		clientOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(tracer.endpoint),
			otlptracegrpc.WithDialOption(grpc.WithBlock()),
		}
		if tracer.insecure {
			clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
		} else {
			clientOpts = append(clientOpts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
		}

		exp, err = otlptracegrpc.New(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to establish a connection with the otlp exporter: %w", err)
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tracer.samplingRatio))),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exp)),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	otel.SetTracerProvider(tp)

	return &tracerProvider{tp: tp}, nil
}

func MustNewTracerProvider(opts ...TracerOption) TracerProvider {
	tp, err := NewTracerProvider(opts...)
	if err != nil {
		panic(err)
	}
	return tp
}

// DisableTracing installs a no-op global tracer provider and returns it.
func DisableTracing() TracerProvider {
	tp := Noop()
	otel.SetTracerProvider(tp)
	return tp
}

func TraceError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
