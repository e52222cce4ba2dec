package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/competition-engine/internal/app"
	"github.com/riskibarqy/competition-engine/internal/config"
	"github.com/riskibarqy/competition-engine/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/competition-engine/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func memoryBuilder(ctx context.Context) (*app.Container, error) {
	cfg := config.Config{
		AppEnv:               config.EnvDev,
		StoreBackend:         config.StoreBackendMemory,
		EventLogBackend:      config.EventLogBackendMemory,
		StoreMaxTxAttempts:   8,
		StoreRetryBackoff:    time.Millisecond,
		StoreRetryMaxBackoff: 5 * time.Millisecond,
		FuzzyMaxDistance:     3,
		WorkerPoolSize:       2,
	}
	return app.Build(ctx, cfg, logging.NewNop())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd(memoryBuilder)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGhostsCommand(t *testing.T) {
	out, err := execute(t, "ghosts", memory.CompetitionIDPremierLeague)
	require.NoError(t, err)

	var ghosts []map[string]any
	require.NoError(t, sonic.UnmarshalString(out, &ghosts), out)
	require.Len(t, ghosts, 2)
}

func TestAuditCommandRequiresCompetitionOrAll(t *testing.T) {
	_, err := execute(t, "audit")
	require.Error(t, err)

	out, err := execute(t, "audit", "--all")
	require.NoError(t, err)

	var reports []map[string]any
	require.NoError(t, sonic.UnmarshalString(out, &reports), out)
	require.Len(t, reports, 1)
}

func TestMergeCommandNeedsConfirm(t *testing.T) {
	_, err := execute(t, "merge", memory.CompetitionIDPremierLeague, "--primary", "1", "--secondary", "2")
	require.Error(t, err)

	out, err := execute(t, "merge", memory.CompetitionIDPremierLeague, "--primary", "1", "--secondary", "2", "--confirm")
	require.NoError(t, err)
	require.Contains(t, out, "Mbabane Highlanders")
}

func TestTransitionCommand(t *testing.T) {
	out, err := execute(t, "transition", memory.CompetitionIDPremierLeague, "--match", "swz-2025-05", "--status", "live", "--minute", "3")
	require.NoError(t, err)
	require.Contains(t, out, `"live"`)

	_, err = execute(t, "transition", memory.CompetitionIDPremierLeague, "--status", "live")
	require.Error(t, err)
}

func TestRecomputeAllCommand(t *testing.T) {
	out, err := execute(t, "recompute", "--all")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, sonic.UnmarshalString(out, &result), out)
	require.EqualValues(t, 1, result["competition_count"])
	require.EqualValues(t, 0, result["failed_count"])
}
