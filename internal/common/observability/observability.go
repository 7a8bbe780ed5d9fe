package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	messageCounter   otelmetric.Int64Counter
	messageDuration  otelmetric.Float64Histogram
	analyzerFailures otelmetric.Int64Counter
}

type options struct {
	registerer     promclient.Registerer
	spanProcessors []sdktrace.SpanProcessor
	sampleRatio    float64
	setGlobal      bool
}

type Option func(*options)

// WithRegisterer sends the otel metrics to reg instead of the default registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.spanProcessors = append(o.spanProcessors, sp) }
}

func WithSampleRatio(ratio float64) Option {
	return func(o *options) { o.sampleRatio = ratio }
}

// WithGlobalProviders installs the providers as the otel globals.
func WithGlobalProviders() Option {
	return func(o *options) { o.setGlobal = true }
}

func New(serviceName string, opts ...Option) (*Observability, error) {
	cfg := options{
		registerer:  promclient.DefaultRegisterer,
		sampleRatio: 1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(cfg.registerer))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.sampleRatio))),
	}
	for _, sp := range cfg.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)

	if cfg.setGlobal {
		otel.SetMeterProvider(meterProvider)
		otel.SetTracerProvider(tracerProvider)
	}

	meter := meterProvider.Meter(serviceName)

	messageCounter, err := meter.Int64Counter(
		"relay.messages",
		otelmetric.WithDescription("Number of relayed messages by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message counter: %w", err)
	}

	messageDuration, err := meter.Float64Histogram(
		"relay.message.duration",
		otelmetric.WithDescription("End-to-end message relay duration in milliseconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message histogram: %w", err)
	}

	analyzerFailures, err := meter.Int64Counter(
		"relay.analyzer.failures",
		otelmetric.WithDescription("Analyzer calls that failed and were skipped"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer failure counter: %w", err)
	}

	return &Observability{
		meterProvider:    meterProvider,
		tracerProvider:   tracerProvider,
		tracer:           tracerProvider.Tracer(serviceName),
		messageCounter:   messageCounter,
		messageDuration:  messageDuration,
		analyzerFailures: analyzerFailures,
	}, nil
}

// StartSpan opens a span. A nil Observability hands out no-op spans.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordMessage(ctx context.Context, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))
	if o.messageCounter != nil {
		o.messageCounter.Add(ctx, 1, attrs)
	}
	if o.messageDuration != nil {
		o.messageDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordAnalyzerFailure(ctx context.Context) {
	if o == nil || o.analyzerFailures == nil {
		return
	}
	o.analyzerFailures.Add(ctx, 1)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var firstErr error
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
