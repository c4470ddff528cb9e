package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewProvider returns a tracer provider that logs each ended step span.
func NewProvider() *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(stepLogProcessor{}))
}

// stepLogProcessor writes one log line per ended span: "[ok]" or "[x]" with
// its duration and, for degraded steps, the recorded causes.
type stepLogProcessor struct{}

func (stepLogProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (stepLogProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	attrs := []any{
		"step", s.Name(),
		"took", s.EndTime().Sub(s.StartTime()).Round(time.Millisecond),
	}
	for _, ev := range s.Events() {
		if ev.Name != DegradedEvent {
			continue
		}
		for _, kv := range ev.Attributes {
			if kv.Key == "error" {
				attrs = append(attrs, "degraded", kv.Value.AsString())
			}
		}
	}

	if s.Status().Code == codes.Error {
		slog.Error("[x] "+s.Name(), append(attrs, "err", s.Status().Description)...)
		return
	}
	slog.Info("[ok] "+s.Name(), attrs...)
}

func (stepLogProcessor) Shutdown(context.Context) error { return nil }
func (stepLogProcessor) ForceFlush(context.Context) error { return nil }
