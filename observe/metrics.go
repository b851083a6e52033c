// Package observe holds the OpenTelemetry metric instruments recorded by the
// pipeline. Without an SDK provider installed the global meter is a no-op, so
// recording is always safe; tests pass their own provider to NewMetrics.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ravinpandey/ecalls-ar-sentiment-mvp"

// Metrics holds every instrument. All fields are safe for concurrent use.
type Metrics struct {
	// Utterances counts segmented utterances per section.
	//   attribute.String("section", ...)
	Utterances metric.Int64Counter

	// Scored counts scorer calls per outcome.
	//   attribute.String("provider", ...), attribute.String("status", "ok"|"error")
	Scored metric.Int64Counter

	// ScoreDuration is the latency of one scorer call in seconds.
	ScoreDuration metric.Float64Histogram

	// Pairs counts emitted QA pairs.
	Pairs metric.Int64Counter

	// Calls counts processed transcripts.
	Calls metric.Int64Counter
}

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// NewMetrics creates the instruments against mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Utterances, err = m.Int64Counter("ecalls.utterances",
		metric.WithDescription("Utterances produced by the segmenter."),
	); err != nil {
		return nil, err
	}
	if met.Scored, err = m.Int64Counter("ecalls.scorer.calls",
		metric.WithDescription("Sentiment scorer invocations."),
	); err != nil {
		return nil, err
	}
	if met.ScoreDuration, err = m.Float64Histogram("ecalls.scorer.duration",
		metric.WithDescription("Latency of one sentiment scorer invocation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Pairs, err = m.Int64Counter("ecalls.qa_pairs",
		metric.WithDescription("Question/answer pairs emitted."),
	); err != nil {
		return nil, err
	}
	if met.Calls, err = m.Int64Counter("ecalls.calls",
		metric.WithDescription("Transcripts processed."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// DefaultMetrics returns instruments bound to the global meter provider.
func DefaultMetrics() *Metrics {
	defaultOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: create default metrics: " + err.Error())
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordScore records one scorer call.
func (m *Metrics) RecordScore(ctx context.Context, provider string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(attribute.String("provider", provider), attribute.String("status", status))
	m.Scored.Add(ctx, 1, attrs)
	m.ScoreDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordSegment records the utterances of one call.
func (m *Metrics) RecordSegment(ctx context.Context, prepared, qa int) {
	m.Calls.Add(ctx, 1)
	m.Utterances.Add(ctx, int64(prepared), metric.WithAttributes(attribute.String("section", "prepared")))
	m.Utterances.Add(ctx, int64(qa), metric.WithAttributes(attribute.String("section", "qa")))
}
