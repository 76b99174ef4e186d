package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

func TestNewOTLPTracerProviderRequiresEndpoint(t *testing.T) {
	t.Parallel()

	_, err := NewOTLPTracerProvider(context.Background(), DefaultOTLPConfig("vectordb-stress", ""))
	if !errors.Is(err, ErrNoEndpoint) {
		t.Fatalf("error = %v, want ErrNoEndpoint", err)
	}
}

func TestOTLPTracerProviderSpans(t *testing.T) {
	for _, useHTTP := range []bool{true, false} {
		cfg := DefaultOTLPConfig("vectordb-stress", "localhost:4317")
		cfg.UseHTTP = useHTTP
		cfg.SampleRate = 0
		cfg.Headers = map[string]string{"x-run": "test"}

		provider, err := NewOTLPTracerProvider(context.Background(), cfg)
		if err != nil {
			t.Fatalf("NewOTLPTracerProvider(http=%v) error = %v", useHTTP, err)
		}
		exerciseSpan(t, provider)
	}
}

func exerciseSpan(t *testing.T, provider *OTLPTracerProvider) {
	t.Helper()

	_, span := provider.StartSpan(context.Background(), "vectordb.search",
		WithSpanKind(SpanKindClient),
		WithAttributes(map[string]any{"top_k": 5}),
	)
	span.SetAttribute("outcome", "ok")
	span.AddEvent("ranked", map[string]any{"documents": 5})
	span.SetStatus(SpanStatusError, "simulated")
	span.End(errors.New("simulated"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = provider.Shutdown(ctx)
}

func TestSamplerFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rate float64
		want string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		if got := samplerFor(tt.rate).Description(); got != tt.want {
			t.Errorf("samplerFor(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestAnyToAttribute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value any
		want  attribute.Value
	}{
		{"ok", attribute.StringValue("ok")},
		{5, attribute.IntValue(5)},
		{int64(7), attribute.Int64Value(7)},
		{0.5, attribute.Float64Value(0.5)},
		{true, attribute.BoolValue(true)},
		{[]string{"a", "b"}, attribute.StringSliceValue([]string{"a", "b"})},
		{250 * time.Millisecond, attribute.StringValue("250ms")},
		{float32(0.5), attribute.Float64Value(0.5)},
		{[]float64{0.9, 0.8}, attribute.Float64SliceValue([]float64{0.9, 0.8})},
		{errors.New("boom"), attribute.StringValue("boom")},
		{stringer("ERROR"), attribute.StringValue("mode:ERROR")},
		{uint8(3), attribute.StringValue("3")},
	}
	for _, tt := range tests {
		got := anyToAttribute("k", tt.value)
		if got.Value.Emit() != tt.want.Emit() || got.Value.Type() != tt.want.Type() {
			t.Errorf("anyToAttribute(%v) = %v, want %v", tt.value, got.Value.Emit(), tt.want.Emit())
		}
	}
}

type stringer string

func (s stringer) String() string { return "mode:" + string(s) }
