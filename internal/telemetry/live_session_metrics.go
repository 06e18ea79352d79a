package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// Lifecycle transition metrics
	transitionCounter metric.Int64Counter

	// Fan-out metrics
	fanoutCounter      metric.Int64Counter
	fanoutDuration     metric.Float64Histogram
	fanoutEmailCounter metric.Int64Counter
)

// InitLiveSessionMetrics registers the live session instruments on the global meter.
func InitLiveSessionMetrics() error {
	meter := otel.Meter("nexus.live_session")

	var err error

	transitionCounter, err = meter.Int64Counter(
		"live_session.transition.count",
		metric.WithDescription("Number of live session lifecycle operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return err
	}

	fanoutCounter, err = meter.Int64Counter(
		"live_session.fanout.count",
		metric.WithDescription("Number of notification fan-outs"),
		metric.WithUnit("{fanout}"),
	)
	if err != nil {
		return err
	}

	fanoutDuration, err = meter.Float64Histogram(
		"live_session.fanout.duration",
		metric.WithDescription("Duration of notification fan-outs"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	fanoutEmailCounter, err = meter.Int64Counter(
		"live_session.fanout.emails",
		metric.WithDescription("Emails attempted during fan-out"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordTransition counts one lifecycle operation. result is "success" or an error kind.
func RecordTransition(ctx context.Context, op string, result string) {
	if transitionCounter != nil {
		transitionCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("op", op),
				attribute.String("result", result),
			),
		)
	}
}

// RecordFanout records one finished fan-out. result is "success", "partial", "failed" or "skipped".
func RecordFanout(ctx context.Context, result string, durationMs float64) {
	if fanoutCounter != nil {
		fanoutCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String("result", result)),
		)
	}

	if fanoutDuration != nil && result != "skipped" {
		fanoutDuration.Record(ctx, durationMs,
			metric.WithAttributes(attribute.String("result", result)),
		)
	}
}

func RecordFanoutEmails(ctx context.Context, sent, failed int64) {
	if fanoutEmailCounter == nil {
		return
	}
	if sent > 0 {
		fanoutEmailCounter.Add(ctx, sent, metric.WithAttributes(attribute.String("result", "sent")))
	}
	if failed > 0 {
		fanoutEmailCounter.Add(ctx, failed, metric.WithAttributes(attribute.String("result", "failed")))
	}
}
