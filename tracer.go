package authorizer

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for authorizer spans.
const TracerName = "github.com/oidcauthorizer/oidc-authorizer"

// ServiceName is reported as service.name on exported spans.
const ServiceName = "oidc-authorizer"

func defaultTracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// NewZipkinTracerProvider builds a tracer provider exporting batched spans to
// a Zipkin collector, for example http://localhost:9411/api/v2/spans. The
// caller owns the provider and must Shutdown it.
func NewZipkinTracerProvider(endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := zipkin.New(endpoint)
	if err != nil {
		return nil, fmt.Errorf("could not create zipkin exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", ServiceName),
			attribute.String("service.version", Version),
		)),
	), nil
}
