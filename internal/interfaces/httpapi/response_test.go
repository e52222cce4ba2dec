package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/competition-engine/internal/domain/competition"
	"github.com/riskibarqy/competition-engine/internal/domain/matchevent"
	"github.com/riskibarqy/competition-engine/internal/usecase"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "2.0", body["apiVersion"])
	return body
}

func TestWriteSuccess_DataWithoutError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusCreated, map[string]string{"id": "swz-premier-league-2025"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeEnvelope(t, rec)
	require.Contains(t, body, "data")
	require.NotContains(t, body, "error")
}

func TestWriteError_CarriesReasonAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: unknown team 9", competition.ErrInvalidMatch))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, rec.Header().Get("Retry-After"))

	body := decodeEnvelope(t, rec)
	require.NotContains(t, body, "data")
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "INVALID_ARGUMENT", errObj["status"])
	require.EqualValues(t, http.StatusBadRequest, errObj["code"])

	details, ok := errObj["errors"].([]any)
	require.True(t, ok)
	require.Len(t, details, 1)
	detail := details[0].(map[string]any)
	require.Equal(t, "invalidInput", detail["reason"])
	require.Equal(t, "competition-engine", detail["domain"])
}

func TestWriteError_RetryableSetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("gave up: %w", competition.ErrContention))

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestWriteInternalError_HidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	writeInternalError(context.Background(), rec)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	errObj := decodeEnvelope(t, rec)["error"].(map[string]any)
	require.Equal(t, "internal server error", errObj["message"])
	require.Equal(t, "INTERNAL", errObj["status"])
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		retryable  bool
	}{
		{"illegal transition", fmt.Errorf("%w: completed -> live", competition.ErrInvalidTransition), http.StatusConflict, "FAILED_PRECONDITION", false},
		{"transition wins over not found", fmt.Errorf("%w: %w: match=m1", competition.ErrInvalidTransition, competition.ErrMatchNotFound), http.StatusConflict, "FAILED_PRECONDITION", false},
		{"contention", competition.ErrContention, http.StatusConflict, "ABORTED", true},
		{"malformed aggregate", fmt.Errorf("%w: team ids", competition.ErrMalformedAggregate), http.StatusInternalServerError, "DATA_LOSS", false},
		{"competition exists", competition.ErrCompetitionExists, http.StatusConflict, "ALREADY_EXISTS", false},
		{"invalid event", matchevent.ErrInvalidEvent, http.StatusBadRequest, "INVALID_ARGUMENT", false},
		{"merge without confirm", competition.ErrInvalidMerge, http.StatusBadRequest, "INVALID_ARGUMENT", false},
		{"competition not found", fmt.Errorf("%w: %w", usecase.ErrNotFound, competition.ErrCompetitionNotFound), http.StatusNotFound, "NOT_FOUND", false},
		{"teams not found", competition.ErrTeamsNotFound, http.StatusNotFound, "NOT_FOUND", false},
		{"unauthorized", usecase.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHENTICATED", false},
		{"rate limited", fmt.Errorf("%w: client=10.0.0.1", errRateLimited), http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", true},
		{"dependency unavailable", usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE", true},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(context.Background(), tt.err)
			require.Equal(t, tt.wantStatus, got.HTTPStatus)
			require.Equal(t, tt.wantCode, got.Status)
			require.Equal(t, tt.retryable, got.Retryable)
		})
	}
}
