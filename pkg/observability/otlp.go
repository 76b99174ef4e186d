package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoEndpoint is returned when OTLP export is requested without a collector.
var ErrNoEndpoint = errors.New("otlp endpoint is required")

// OTLPConfig configures span export to an OpenTelemetry collector.
type OTLPConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string // host:port of the collector
	UseHTTP        bool   // OTLP/HTTP (usually 4318) instead of gRPC (4317)
	Insecure       bool
	Headers        map[string]string
	SampleRate     float64 // fraction of traces kept
	BatchTimeout   time.Duration
}

// DefaultOTLPConfig returns an insecure gRPC config that keeps every trace.
func DefaultOTLPConfig(serviceName, endpoint string) OTLPConfig {
	return OTLPConfig{
		ServiceName:    serviceName,
		ServiceVersion: "unknown",
		Endpoint:       endpoint,
		Insecure:       true,
		SampleRate:     1,
		BatchTimeout:   5 * time.Second,
	}
}

// OTLPTracerProvider exports spans through the OpenTelemetry SDK.
type OTLPTracerProvider struct {
	sdk    *sdktrace.TracerProvider
	tracer trace.Tracer
}

// NewOTLPTracerProvider builds the exporter and registers the SDK provider
// globally. Exporters connect lazily, so an unreachable collector only shows
// up as export errors. Shutdown flushes what is buffered.
func NewOTLPTracerProvider(ctx context.Context, cfg OTLPConfig) (*OTLPTracerProvider, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNoEndpoint
	}

	var (
		exporter *otlptrace.Exporter
		err      error
	)
	if cfg.UseHTTP {
		exporter, err = httpExporter(ctx, cfg)
	} else {
		exporter, err = grpcExporter(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SampleRate)),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(cfg.BatchTimeout)),
	)
	otel.SetTracerProvider(sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &OTLPTracerProvider{sdk: sdk, tracer: sdk.Tracer(cfg.ServiceName)}, nil
}

func (p *OTLPTracerProvider) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	cfg := newSpanConfig(opts)

	attrs := make([]attribute.KeyValue, 0, len(cfg.attributes))
	for k, v := range cfg.attributes {
		attrs = append(attrs, anyToAttribute(k, v))
	}

	ctx, span := p.tracer.Start(ctx, name,
		trace.WithSpanKind(otelKind(cfg.kind)),
		trace.WithAttributes(attrs...),
	)
	return ctx, &otlpSpan{span: span}
}

func (p *OTLPTracerProvider) Shutdown(ctx context.Context) error {
	return p.sdk.Shutdown(ctx)
}

type otlpSpan struct {
	span     trace.Span
	statused bool
}

func (s *otlpSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		if !s.statused {
			s.span.SetStatus(codes.Error, err.Error())
		}
	}
	s.span.End()
}

func (s *otlpSpan) SetAttribute(key string, value any) {
	s.span.SetAttributes(anyToAttribute(key, value))
}

func (s *otlpSpan) AddEvent(name string, attrs map[string]any) {
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kv = append(kv, anyToAttribute(k, v))
	}
	s.span.AddEvent(name, trace.WithAttributes(kv...))
}

func (s *otlpSpan) SetStatus(code SpanStatus, description string) {
	s.statused = true
	switch code {
	case SpanStatusOK:
		s.span.SetStatus(codes.Ok, description)
	case SpanStatusError:
		s.span.SetStatus(codes.Error, description)
	default:
		s.span.SetStatus(codes.Unset, description)
	}
}

func (s *otlpSpan) SpanContext() SpanContext {
	sc := s.span.SpanContext()
	return SpanContext{TraceID: sc.TraceID().String(), SpanID: sc.SpanID().String()}
}

func otelKind(k SpanKind) trace.SpanKind {
	switch k {
	case SpanKindServer:
		return trace.SpanKindServer
	case SpanKindClient:
		return trace.SpanKindClient
	default:
		return trace.SpanKindInternal
	}
}

func samplerFor(rate float64) sdktrace.Sampler {
	if rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

// anyToAttribute maps span values onto OpenTelemetry attribute types.
// Unknown types use their fmt form.
func anyToAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case float32:
		return attribute.Float64(key, float64(v))
	case []string:
		return attribute.StringSlice(key, v)
	case []float64:
		return attribute.Float64Slice(key, v)
	case time.Duration:
		return attribute.String(key, v.String())
	case error:
		return attribute.String(key, v.Error())
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}

func httpExporter(ctx context.Context, cfg OTLPConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}

func grpcExporter(ctx context.Context, cfg OTLPConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	return otlptracegrpc.New(ctx, opts...)
}
