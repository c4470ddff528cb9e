// Package telemetry traces multi-step operations such as bootstrap.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName       = "pilotmgr"
	StepsKey         = "pilotmgr.steps"
	StepIndexKey     = "pilotmgr.step.index"
	DegradedEvent    = "pilotmgr.degraded"
	defaultOperation = "operation"
)

// Tracer returns the process tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Operation is a root span whose children are the declared steps, run in order.
type Operation struct {
	ctx    context.Context
	tracer trace.Tracer
	span   trace.Span
	steps  []string
	next   int
}

// Begin starts an operation with the given ordered step names.
func Begin(ctx context.Context, tracer trace.Tracer, name string, steps ...string) (*Operation, error) {
	if tracer == nil {
		return nil, fmt.Errorf("begin operation: tracer is required")
	}
	seen := make(map[string]struct{}, len(steps))
	for i, s := range steps {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("begin operation: step %d has empty name", i)
		}
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("begin operation: duplicate step %q", s)
		}
		seen[s] = struct{}{}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultOperation
	}
	spanCtx, span := tracer.Start(ctx, name, trace.WithAttributes(
		attribute.StringSlice(StepsKey, steps),
	))
	return &Operation{ctx: spanCtx, tracer: tracer, span: span, steps: steps}, nil
}

func (o *Operation) Context() context.Context {
	if o == nil {
		return context.Background()
	}
	return o.ctx
}

// RunStep runs fn in a child span. Steps must run in declaration order.
func (o *Operation) RunStep(name string, fn func(context.Context) error) error {
	if o == nil || o.tracer == nil {
		return fn(context.Background())
	}
	if o.next >= len(o.steps) || o.steps[o.next] != name {
		return fmt.Errorf("run step %q: out of order (next is %s)", name, o.expected())
	}
	idx := o.next
	o.next++

	stepCtx, span := o.tracer.Start(o.ctx, name, trace.WithAttributes(
		attribute.Int(StepIndexKey, idx+1),
	))
	defer span.End()

	if err := fn(stepCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
		return err
	}
	return nil
}

// Degraded records a non-fatal failure on the span active in ctx.
func Degraded(ctx context.Context, err error) {
	if err == nil {
		return
	}
	trace.SpanFromContext(ctx).AddEvent(DegradedEvent, trace.WithAttributes(
		attribute.String("error", err.Error()),
	))
}

func (o *Operation) End(err error) {
	if o == nil || o.span == nil {
		return
	}
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
	}
	o.span.End()
}

func (o *Operation) expected() string {
	if o.next >= len(o.steps) {
		return "none"
	}
	return fmt.Sprintf("%q", o.steps[o.next])
}
