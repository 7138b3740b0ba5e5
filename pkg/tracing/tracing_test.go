package tracing

import (
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Setup(ctx, Config{Service: "space-service", Version: "test"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer func() { _ = shutdown(ctx) }()

	spanCtx, span := otel.Tracer("tracing-test").Start(ctx, "op")
	defer span.End()
	sc := span.SpanContext()
	if !sc.IsValid() || !sc.IsSampled() {
		t.Fatalf("span context = %+v", sc)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(spanCtx, carrier)
	if !strings.Contains(carrier.Get("traceparent"), sc.TraceID().String()) {
		t.Fatalf("traceparent = %q", carrier.Get("traceparent"))
	}
}

func TestSetupContinuesRemoteParent(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Setup(ctx, Config{Service: "space-service", SampleRatio: 0.5})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer func() { _ = shutdown(ctx) }()

	carrier := propagation.MapCarrier{"traceparent": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"}
	parent := otel.GetTextMapPropagator().Extract(ctx, carrier)
	_, span := otel.Tracer("tracing-test").Start(parent, "child", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	if got := span.SpanContext().TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("trace id = %s", got)
	}
	if !span.SpanContext().IsSampled() {
		t.Fatal("sampled parent must keep the child sampled")
	}
}
