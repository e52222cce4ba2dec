package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/competition-engine/internal/config"
	"github.com/riskibarqy/competition-engine/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/competition-engine/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:               config.EnvDev,
		HTTPAddr:             ":0",
		StoreBackend:         config.StoreBackendMemory,
		EventLogBackend:      config.EventLogBackendMemory,
		StoreMaxTxAttempts:   8,
		StoreRetryBackoff:    time.Millisecond,
		StoreRetryMaxBackoff: 5 * time.Millisecond,
		CacheEnabled:         true,
		CacheTTL:             time.Minute,
		FuzzyMaxDistance:     3,
		AdminToken:           "token",
		AdminRateLimitRPS:    5,
		AdminRateLimitBurst:  10,
		WorkerPoolSize:       2,
	}
}

func TestBuild_MemoryBackend(t *testing.T) {
	ctx := context.Background()
	container, err := Build(ctx, memoryConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Close()) })

	items, err := container.Competitions.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	report, err := container.Identity.Audit(ctx, memory.CompetitionIDPremierLeague)
	require.NoError(t, err)
	require.Len(t, report.Ghosts, 2)
}

func TestBuild_EventLogDisabled(t *testing.T) {
	cfg := memoryConfig()
	cfg.EventLogBackend = config.EventLogBackendNone

	container, err := Build(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, container.Close())
}

func TestNewHTTPServer(t *testing.T) {
	container, err := Build(context.Background(), memoryConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	srv, err := NewHTTPServer(container)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/competitions/"+memory.CompetitionIDPremierLeague+"/standings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	container.Config.HTTPAddr = ""
	_, err = NewHTTPServer(container)
	require.Error(t, err)
}
