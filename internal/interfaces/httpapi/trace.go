package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const handlerSpanPrefix = "httpapi.Handler."

var tracer = otel.Tracer("competition-engine/internal/interfaces/httpapi")

// startSpan opens child spans for handler methods only. Helpers and
// middleware reuse the request span so a standings call stays one level deep,
// and unsampled routes such as /healthz never create roots.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() || !isHandlerSpan(name) {
		return ctx, noopSpan{parent}
	}
	return tracer.Start(ctx, name)
}

func isHandlerSpan(name string) bool {
	return strings.HasPrefix(name, handlerSpanPrefix) && len(name) > len(handlerSpanPrefix)
}

// noopSpan hands back the parent without letting callers end it.
type noopSpan struct{ trace.Span }

func (noopSpan) End(...trace.SpanEndOption) {}
