package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	metricsOnce         sync.Once
	metricsInitErr      error
	transformCounter    metric.Int64Counter
	transformWarnings   metric.Int64Counter
	transformLatency    metric.Float64Histogram
	credentialAcquireCt metric.Int64Counter
)

// TransformMetrics captures the fields recorded for one finished transformation.
type TransformMetrics struct {
	Level            int
	Source           string
	FallbackReason   string
	Warnings         int
	Duration         time.Duration
	CredentialTries  int
	ModulesApplied   int
	ValidationFailed bool
}

// RecordTransform emits counters and histograms that describe a transformation.
func RecordTransform(ctx context.Context, m TransformMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Int("transform.level", m.Level),
		attribute.String("transform.source", m.Source),
	}
	if m.FallbackReason != "" {
		attrs = append(attrs, attribute.String("transform.fallback_reason", m.FallbackReason))
	}
	if m.ValidationFailed {
		attrs = append(attrs, attribute.Bool("transform.validation_failed", true))
	}

	transformCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if m.Duration > 0 {
		transformLatency.Record(ctx, float64(m.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}
	if m.Warnings > 0 {
		transformWarnings.Add(ctx, int64(m.Warnings), metric.WithAttributes(attrs...))
	}
	if m.CredentialTries > 0 {
		credentialAcquireCt.Add(ctx, int64(m.CredentialTries), metric.WithAttributes(attrs...))
	}
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("codeforge.enhancer")

		transformCounter, metricsInitErr = meter.Int64Counter(
			"codeforge.transform.total",
			metric.WithDescription("Transformations partitioned by result source"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		transformWarnings, metricsInitErr = meter.Int64Counter(
			"codeforge.transform.warnings_total",
			metric.WithDescription("Warnings attached to transformation results"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		credentialAcquireCt, metricsInitErr = meter.Int64Counter(
			"codeforge.transform.credential_attempts_total",
			metric.WithDescription("Credential acquisition attempts made by transformations"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		transformLatency, metricsInitErr = meter.Float64Histogram(
			"codeforge.transform.duration_ms",
			metric.WithDescription("Observed transformation latency"),
			metric.WithUnit("ms"),
		)
	})

	return metricsInitErr
}

// Tracer returns the module tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// RecordFallback attaches the reason the remote path was abandoned to span.
func RecordFallback(span trace.Span, state string, reason error) {
	if span == nil || !span.IsRecording() || reason == nil {
		return
	}
	span.AddEvent("transform.fallback", trace.WithAttributes(
		attribute.String("transform.failed_state", state),
		attribute.String("transform.fallback_reason", reason.Error()),
	))
}
