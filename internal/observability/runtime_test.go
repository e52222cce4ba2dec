package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/competition-engine/internal/config"
	"github.com/riskibarqy/competition-engine/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func TestStart_AllDisabled(t *testing.T) {
	cfg := config.Config{
		UptraceEnabled: true,
		UptraceDSN:     "",
		ServiceName:    "competition-engine",
		AppEnv:         config.EnvDev,
	}

	rt, err := Start(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	require.Empty(t, rt.Enabled())
	require.NoError(t, rt.Shutdown(context.Background()))
}

func TestRuntime_ShutdownReverseOrderCollectsErrors(t *testing.T) {
	var order []string
	stop := func(name string, err error) stopFunc {
		return func(context.Context) error {
			order = append(order, name)
			return err
		}
	}
	rt := &Runtime{
		logger: logging.NewNop(),
		names:  []string{"uptrace", "pyroscope", "pprof"},
		stops:  []stopFunc{stop("uptrace", nil), stop("pyroscope", errors.New("upload pending")), stop("pprof", nil)},
	}

	err := rt.Shutdown(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "stop pyroscope")
	require.Equal(t, []string{"pprof", "pyroscope", "uptrace"}, order)
	require.NoError(t, rt.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestRuntime_NilIsSafe(t *testing.T) {
	var rt *Runtime
	require.Nil(t, rt.Enabled())
	require.NoError(t, rt.Shutdown(context.Background()))
}

func TestPprofMux_ServesIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	pprofMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	pprofMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/pprof/", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
