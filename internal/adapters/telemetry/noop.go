package telemetry

import (
	"context"

	"github.com/pindown/pindown/internal/core/ports"
)

// NoopTracer is a ports.Tracer that records nothing.
type NoopTracer struct{}

// NewNoopTracer returns a tracer that discards all spans.
func NewNoopTracer() *NoopTracer { return &NoopTracer{} }

// Start returns the context unchanged and a span that does nothing.
func (t *NoopTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End()                     {}
func (noopSpan) RecordError(error)        {}
func (noopSpan) SetAttribute(string, any) {}
