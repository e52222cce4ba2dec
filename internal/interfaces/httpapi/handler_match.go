package httpapi

import (
	"net/http"

	"github.com/riskibarqy/competition-engine/internal/usecase"
)

func (h *Handler) TransitionMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TransitionMatch")
	defer span.End()

	competitionID, matchID := pathCompetitionID(r), pathMatchID(r)
	var req transitionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	update, err := h.matchService.Transition(ctx, usecase.TransitionMatchInput{
		CompetitionID: competitionID,
		MatchID:       matchID,
		Status:        req.Status,
		HomeScore:     req.HomeScore,
		AwayScore:     req.AwayScore,
		LiveMinute:    req.LiveMinute,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "transition match failed",
			"competition_id", competitionID,
			"match_id", matchID,
			"status", req.Status,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchUpdateToDTO(ctx, update))
}

func (h *Handler) ReportGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReportGoal")
	defer span.End()

	competitionID, matchID := pathCompetitionID(r), pathMatchID(r)
	var req goalRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	update, err := h.matchService.ReportGoal(ctx, usecase.ReportGoalInput{
		CompetitionID: competitionID,
		MatchID:       matchID,
		Side:          req.Side,
		Minute:        req.Minute,
		Player:        req.Player,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "report goal failed", "competition_id", competitionID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchUpdateToDTO(ctx, update))
}

func (h *Handler) RecordMatchEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordMatchEvent")
	defer span.End()

	competitionID, matchID := pathCompetitionID(r), pathMatchID(r)
	var req eventRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	event, err := h.matchService.RecordEvent(ctx, usecase.RecordEventInput{
		CompetitionID: competitionID,
		MatchID:       matchID,
		Kind:          req.Kind,
		Side:          req.Side,
		Minute:        req.Minute,
		Player:        req.Player,
		Detail:        req.Detail,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record match event failed", "competition_id", competitionID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, eventToDTO(event))
}

func (h *Handler) ListMatchEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchEvents")
	defer span.End()

	competitionID, matchID := pathCompetitionID(r), pathMatchID(r)
	events, err := h.matchService.ListEvents(ctx, competitionID, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "list match events failed", "competition_id", competitionID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]eventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, eventToDTO(event))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
