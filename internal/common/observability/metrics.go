package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerShutdown func(context.Context) error
	meter          otelmetric.Meter
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	artifactItems  otelmetric.Int64Histogram
}

// New sets up the meter provider over the Prometheus exporter. Tracing is
// attached separately with EnableTracing.
func New(serviceName string) *Observability {
	o := &Observability{tracer: otel.Tracer(serviceName)}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	artifactItems, _ := meter.Int64Histogram(
		"artifacts.items",
		otelmetric.WithDescription("Items extracted per normalized artifact"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.jobCounter = jobCounter
	o.jobDuration = jobDuration
	o.artifactItems = artifactItems
	return o
}

// EnableTracing exports spans to the Jaeger collector at endpoint.
func (o *Observability) EnableTracing(serviceName, endpoint string) error {
	tp, err := InitTracer(serviceName, endpoint)
	if err != nil {
		return err
	}
	o.tracer = tp.Tracer(serviceName)
	o.tracerShutdown = tp.Shutdown
	return nil
}

// StartSpan starts a span on the configured tracer. Without EnableTracing
// the global no-op provider is used.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer("study-assistant-workers")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordArtifactItems records how many cards, questions, nodes or subjects
// an artifact carried.
func (o *Observability) RecordArtifactItems(ctx context.Context, kind string, n int) {
	if o.artifactItems != nil {
		o.artifactItems.Record(ctx, int64(n), otelmetric.WithAttributes(
			attribute.String("kind", kind),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			log.Printf("meter provider shutdown: %v", err)
		}
	}
	if o.tracerShutdown != nil {
		if err := o.tracerShutdown(ctx); err != nil {
			log.Printf("tracer provider shutdown: %v", err)
		}
	}
}
