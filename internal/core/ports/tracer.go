package ports

import "context"

// SpanConfig holds options applied when starting a span.
type SpanConfig struct{}

// SpanOption configures a span at start time.
type SpanOption func(*SpanConfig)

// Tracer defines the interface for tracing engine operations.
//
//go:generate mockgen -source=tracer.go -destination=mocks/mock_tracer.go -package=mocks
type Tracer interface {
	// Start creates a new span and returns the derived context.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
}

// Span is a single traced operation.
type Span interface {
	// End completes the span.
	End()

	// RecordError records an error for the span.
	RecordError(err error)

	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}
