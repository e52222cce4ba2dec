package httpapi

import (
	"net/http"

	"github.com/riskibarqy/competition-engine/internal/usecase"
)

func (h *Handler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCompetitions")
	defer span.End()

	items, err := h.competitionService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list competitions failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]competitionSummaryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, competitionSummaryToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCompetition")
	defer span.End()

	competitionID := pathCompetitionID(r)
	item, err := h.competitionService.Get(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get competition failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionToDTO(ctx, item))
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStandings")
	defer span.End()

	competitionID := pathCompetitionID(r)
	rows, err := h.competitionService.Standings(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get standings failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standingsToDTO(rows))
}

func (h *Handler) CreateCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateCompetition")
	defer span.End()

	var req createCompetitionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.competitionService.Create(ctx, usecase.CreateCompetitionInput{
		ID:    req.ID,
		Name:  req.Name,
		Teams: req.Teams,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create competition failed", "actor", adminActorFromContext(ctx), "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "competition created", "actor", adminActorFromContext(ctx), "competition_id", item.ID)
	writeSuccess(ctx, w, http.StatusCreated, competitionToDTO(ctx, item))
}

func (h *Handler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegisterTeam")
	defer span.End()

	competitionID := pathCompetitionID(r)
	var req registerTeamRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.competitionService.RegisterTeam(ctx, usecase.RegisterTeamInput{
		CompetitionID: competitionID,
		Name:          req.Name,
		CrestURL:      req.CrestURL,
		Players:       req.Players,
		Staff:         req.Staff,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "register team failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, teamToDTO(item))
}

func (h *Handler) ScheduleMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ScheduleMatch")
	defer span.End()

	competitionID := pathCompetitionID(r)
	var req scheduleMatchRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.competitionService.ScheduleMatch(ctx, usecase.ScheduleMatchInput{
		CompetitionID: competitionID,
		MatchID:       req.ID,
		Home:          req.Home,
		Away:          req.Away,
		FullDate:      req.FullDate,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "schedule match failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchToDTO(item))
}
