package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicCompetitionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/competitions", handler.ListCompetitions)
	mux.HandleFunc("GET /v1/competitions/{competitionID}", handler.GetCompetition)
	mux.HandleFunc("GET /v1/competitions/{competitionID}/standings", handler.GetStandings)
	mux.HandleFunc("GET /v1/competitions/{competitionID}/matches/{matchID}/events", handler.ListMatchEvents)
}

// Mutations go through the admin token and the per-client limiter.
func registerAdminCompetitionRoutes(mux *http.ServeMux, handler *Handler, adminToken string, limiter *ClientRateLimiter) {
	admin := func(h http.HandlerFunc) http.Handler {
		return RequireAdminToken(adminToken, RateLimit(limiter, h))
	}

	mux.Handle("POST /v1/competitions", admin(handler.CreateCompetition))
	mux.Handle("POST /v1/competitions/{competitionID}/teams", admin(handler.RegisterTeam))
	mux.Handle("POST /v1/competitions/{competitionID}/matches", admin(handler.ScheduleMatch))
	mux.Handle("POST /v1/competitions/{competitionID}/matches/{matchID}/transition", admin(handler.TransitionMatch))
	mux.Handle("POST /v1/competitions/{competitionID}/matches/{matchID}/goals", admin(handler.ReportGoal))
	mux.Handle("POST /v1/competitions/{competitionID}/matches/{matchID}/events", admin(handler.RecordMatchEvent))
}

func registerIntegrityRoutes(mux *http.ServeMux, handler *Handler, adminToken string, limiter *ClientRateLimiter) {
	read := func(h http.HandlerFunc) http.Handler {
		return RequireAdminToken(adminToken, h)
	}
	write := func(h http.HandlerFunc) http.Handler {
		return RequireAdminToken(adminToken, RateLimit(limiter, h))
	}

	mux.Handle("GET /v1/competitions/{competitionID}/integrity", read(handler.AuditCompetition))
	mux.Handle("POST /v1/competitions/{competitionID}/integrity/adopt", write(handler.AdoptGhosts))
	mux.Handle("POST /v1/competitions/{competitionID}/integrity/rename", write(handler.RenameGhost))
	mux.Handle("POST /v1/competitions/{competitionID}/integrity/merge", write(handler.MergeTeams))
	mux.Handle("POST /v1/competitions/{competitionID}/integrity/dedup", write(handler.DedupMatches))
	mux.Handle("POST /v1/competitions/{competitionID}/integrity/recompute", write(handler.RecomputeStandings))
	mux.Handle("GET /v1/integrity/audit", read(handler.AuditAll))
	mux.Handle("POST /v1/integrity/recompute", write(handler.RecomputeAll))
}
