package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/pindown/pindown/internal/core/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogBridge implements sdktrace.SpanProcessor, reporting span durations
// to the logger. It only emits when verbose mode is enabled.
type LogBridge struct {
	logger  ports.Logger
	verbose bool
}

// NewLogBridge returns a new LogBridge.
func NewLogBridge(logger ports.Logger, verbose bool) *LogBridge {
	return &LogBridge{logger: logger, verbose: verbose}
}

// OnStart is called when a span starts.
func (b *LogBridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !b.verbose {
		return
	}

	elapsed := s.EndTime().Sub(s.StartTime()).Round(time.Millisecond)
	msg := fmt.Sprintf("%s took %s", s.Name(), elapsed)
	if s.Status().Code == codes.Error {
		msg += " (failed)"
	}
	b.logger.Info(msg)
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(_ context.Context) error { return nil }

// Shutdown does nothing.
func (b *LogBridge) Shutdown(_ context.Context) error { return nil }

// Setup configures the global OpenTelemetry SDK with the log bridge so
// spans started via otel.Tracer() are reported to it.
func Setup(bridge *LogBridge) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bridge),
	)
	otel.SetTracerProvider(tp)
}
