package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/competition-engine/internal/domain/competition"
	"github.com/riskibarqy/competition-engine/internal/domain/matchevent"
	"github.com/riskibarqy/competition-engine/internal/usecase"
)

// Responses follow the Google JSON style guide: {"apiVersion", "data"} on
// success and {"apiVersion", "error"} on failure.
const (
	apiVersion  = "2.0"
	errorDomain = "competition-engine"
)

type apiEnvelope struct {
	APIVersion string    `json:"apiVersion"`
	Data       any       `json:"data,omitempty"`
	Error      *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int              `json:"code"`
	Message string           `json:"message"`
	Status  string           `json:"status"`
	Errors  []apiErrorDetail `json:"errors,omitempty"`
}

type apiErrorDetail struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
	Retryable  bool
}

var errRateLimited = errors.New("rate limit exceeded")

type errorRule struct {
	targets []error
	mapped  mappedError
}

// errorRules is matched top to bottom. ErrInvalidTransition sits above the
// not-found rule so a completed match reports the illegal edge.
var errorRules = []errorRule{
	{
		targets: []error{errRateLimited},
		mapped:  mappedError{http.StatusTooManyRequests, "rateLimited", "RESOURCE_EXHAUSTED", true},
	},
	{
		targets: []error{competition.ErrInvalidTransition},
		mapped:  mappedError{http.StatusConflict, "invalidTransition", "FAILED_PRECONDITION", false},
	},
	{
		targets: []error{competition.ErrContention},
		mapped:  mappedError{http.StatusConflict, "contention", "ABORTED", true},
	},
	{
		targets: []error{competition.ErrMalformedAggregate},
		mapped:  mappedError{http.StatusInternalServerError, "malformedAggregate", "DATA_LOSS", false},
	},
	{
		targets: []error{competition.ErrCompetitionExists},
		mapped:  mappedError{http.StatusConflict, "alreadyExists", "ALREADY_EXISTS", false},
	},
	{
		targets: []error{
			usecase.ErrInvalidInput,
			competition.ErrInvalidMatch,
			competition.ErrInvalidTeam,
			competition.ErrDuplicateTeam,
			competition.ErrNotGhost,
			competition.ErrInvalidMerge,
			matchevent.ErrInvalidEvent,
		},
		mapped: mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT", false},
	},
	{
		targets: []error{
			usecase.ErrNotFound,
			competition.ErrCompetitionNotFound,
			competition.ErrMatchNotFound,
			competition.ErrTeamsNotFound,
		},
		mapped: mappedError{http.StatusNotFound, "notFound", "NOT_FOUND", false},
	},
	{
		targets: []error{usecase.ErrUnauthorized},
		mapped:  mappedError{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED", false},
	},
	{
		targets: []error{usecase.ErrDependencyUnavailable},
		mapped:  mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE", true},
	},
}

var internalError = mappedError{http.StatusInternalServerError, "internalError", "INTERNAL", false}

func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	for _, rule := range errorRules {
		for _, target := range rule.targets {
			if errors.Is(err, target) {
				return rule.mapped
			}
		}
	}
	return internalError
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	_, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, apiEnvelope{APIVersion: apiVersion, Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	if mapped.Retryable {
		w.Header().Set("Retry-After", "1")
	}
	writeFailure(ctx, w, mapped, err.Error())
}

// writeInternalError hides the cause, used after a recovered panic.
func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeFailure(ctx, w, internalError, "internal server error")
}

func writeFailure(ctx context.Context, w http.ResponseWriter, mapped mappedError, message string) {
	writeJSON(ctx, w, mapped.HTTPStatus, apiEnvelope{
		APIVersion: apiVersion,
		Error: &apiError{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors:  []apiErrorDetail{{Domain: errorDomain, Reason: mapped.Reason, Message: message}},
		},
	})
}
