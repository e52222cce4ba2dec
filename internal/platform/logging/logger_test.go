package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		require.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestLogger_KeyValueFields(t *testing.T) {
	core, logs := observer.New(LevelDebug)
	logger := FromZap(zap.New(core))

	logger.WarnContext(context.Background(), "match event not logged",
		"competition_id", "swz-premier-league-2025",
		"error", errors.New("stream unavailable"),
		"dangling",
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "swz-premier-league-2025", fields["competition_id"])
	require.Equal(t, "stream unavailable", fields["error"])
	require.Contains(t, fields, "dangling")
	require.NotContains(t, fields, "trace_id")
}

func TestLogger_NilIsSafe(t *testing.T) {
	var logger *Logger
	require.NotPanics(t, func() {
		logger.Info("no logger configured")
		_ = logger.Sync()
	})
}

func TestNewJSONTo_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONTo(&buf, LevelInfo)

	logger.Debug("dropped below level")
	logger.Info("standings recomputed", "teams", 4)

	out := buf.String()
	require.NotContains(t, out, "dropped below level")
	require.Contains(t, out, `"msg":"standings recomputed"`)
	require.Contains(t, out, `"teams":4`)
}
