package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/competition-engine/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORS(t *testing.T) {
	const console = "https://console.competition.example"

	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"configured origin", []string{console}, http.MethodGet, console, http.StatusOK, console},
		{"wildcard preflight", []string{"*"}, http.MethodOptions, console, http.StatusNoContent, "*"},
		{"unconfigured origin", []string{"https://allowed.example.com"}, http.MethodGet, console, http.StatusOK, ""},
		{"no origin header", []string{"*"}, http.MethodGet, "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/competitions", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed, okHandler).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestShouldTraceRequest(t *testing.T) {
	for _, path := range []string{"/healthz", "/health", "/livez", "/readyz", " /HEALTHZ "} {
		require.False(t, shouldTraceRequest(path), path)
	}
	for _, path := range []string{"/v1/competitions", "/v1/integrity/audit", "/", "/docs"} {
		require.True(t, shouldTraceRequest(path), path)
	}
}

func TestRequireAdminToken(t *testing.T) {
	var actor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = adminActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		configured string
		headers    map[string]string
		wantStatus int
		wantActor  string
	}{
		{"header token", "s3cret", map[string]string{adminTokenHeader: "s3cret", adminActorHeader: "ops-desk"}, http.StatusOK, "ops-desk"},
		{"bearer token", "s3cret", map[string]string{"Authorization": "bearer s3cret"}, http.StatusOK, defaultAdminActor},
		{"wrong token", "s3cret", map[string]string{adminTokenHeader: "nope"}, http.StatusUnauthorized, ""},
		{"missing token", "s3cret", nil, http.StatusUnauthorized, ""},
		{"not configured", "", map[string]string{adminTokenHeader: "s3cret"}, http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor = ""
			req := httptest.NewRequest(http.MethodPost, "/v1/integrity/merge", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			RequireAdminToken(tt.configured, next).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantActor, actor)
		})
	}
}

func TestResolveClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:51234"
	require.Equal(t, "192.0.2.10", resolveClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", resolveClientIP(req))

	req.Header.Set("Fly-Client-IP", "garbage")
	require.Equal(t, "203.0.113.7", resolveClientIP(req))
}

func TestClientRateLimiter_DisabledIsNil(t *testing.T) {
	limiter := NewClientRateLimiter(0, 5, clockwork.NewFakeClock())
	require.Nil(t, limiter)
	require.True(t, limiter.Allow("203.0.113.7"))
}

func TestRecoverPanic_WritesInternalError(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("standings exploded") })
	rec := httptest.NewRecorder()

	recoverPanic(logging.NewNop(), boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/competitions", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal server error")
}
