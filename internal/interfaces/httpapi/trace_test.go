package httpapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestIsHandlerSpan(t *testing.T) {
	cases := map[string]bool{
		"httpapi.Handler.GetStandings": true,
		"httpapi.Handler.":             false,
		"httpapi.RequestLogging":       false,
		"httpapi.writeError":           false,
	}
	for name, want := range cases {
		require.Equal(t, want, isHandlerSpan(name), name)
	}
}

func TestStartSpan_OnlyHandlersUnderParent(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, root := provider.Tracer("test").Start(context.Background(), "GET /v1/competitions/{id}/standings")

	_, helper := startSpan(ctx, "httpapi.writeJSON")
	helper.End()
	require.True(t, root.IsRecording(), "ending a helper span must not end the request span")

	_, orphan := startSpan(context.Background(), "httpapi.Handler.GetStandings")
	orphan.End()

	root.End()
	require.Len(t, recorder.Ended(), 1)
}
