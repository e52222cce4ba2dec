package httpapi

import (
	"net/http"

	"github.com/riskibarqy/competition-engine/internal/usecase"
)

func (h *Handler) AuditCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AuditCompetition")
	defer span.End()

	competitionID := pathCompetitionID(r)
	report, err := h.identityService.Audit(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "audit competition failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, auditToDTO(ctx, report))
}

func (h *Handler) AuditAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AuditAll")
	defer span.End()

	reports, err := h.identityService.AuditAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit all competitions failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]auditDTO, 0, len(reports))
	for _, report := range reports {
		out = append(out, auditToDTO(ctx, report))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) AdoptGhosts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdoptGhosts")
	defer span.End()

	competitionID := pathCompetitionID(r)
	// An empty body adopts every ghost.
	var req adoptRequest
	if r.ContentLength != 0 {
		if err := h.decodeRequest(ctx, r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	adopted, err := h.identityService.Adopt(ctx, usecase.AdoptInput{
		CompetitionID: competitionID,
		Names:         req.Names,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "adopt ghosts failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "ghosts adopted",
		"actor", adminActorFromContext(ctx),
		"competition_id", competitionID,
		"count", len(adopted),
	)
	writeSuccess(ctx, w, http.StatusOK, teamsToDTO(adopted))
}

func (h *Handler) RenameGhost(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RenameGhost")
	defer span.End()

	competitionID := pathCompetitionID(r)
	var req renameRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.identityService.Rename(ctx, usecase.RenameGhostInput{
		CompetitionID: competitionID,
		GhostName:     req.GhostName,
		TargetTeamID:  req.TargetTeamID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "rename ghost failed", "competition_id", competitionID, "ghost", req.GhostName, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "ghost renamed",
		"actor", adminActorFromContext(ctx),
		"competition_id", competitionID,
		"ghost", req.GhostName,
		"team_id", result.Team.ID,
		"rewritten_sides", result.RewrittenSides,
	)
	writeSuccess(ctx, w, http.StatusOK, renameResultDTO{
		Team:           teamToDTO(result.Team),
		RewrittenSides: result.RewrittenSides,
	})
}

func (h *Handler) MergeTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MergeTeams")
	defer span.End()

	competitionID := pathCompetitionID(r)
	var req mergeRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.identityService.Merge(ctx, usecase.MergeTeamsInput{
		CompetitionID: competitionID,
		PrimaryID:     req.PrimaryID,
		SecondaryID:   req.SecondaryID,
		Confirmed:     req.Confirm,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "merge teams failed",
			"competition_id", competitionID,
			"primary_id", req.PrimaryID,
			"secondary_id", req.SecondaryID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "teams merged",
		"actor", adminActorFromContext(ctx),
		"competition_id", competitionID,
		"primary_id", result.Primary.ID,
		"removed_id", result.Removed.ID,
	)
	writeSuccess(ctx, w, http.StatusOK, mergeResultDTO{
		Primary:        teamToDTO(result.Primary),
		Removed:        teamToDTO(result.Removed),
		RewrittenSides: result.RewrittenSides,
		MembersAdded:   result.MembersAdded,
	})
}

func (h *Handler) DedupMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DedupMatches")
	defer span.End()

	competitionID := pathCompetitionID(r)
	result, err := h.identityService.Dedup(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "dedup matches failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dedupDTO{
		Dropped: matchesToDTO(result.Dropped),
		Kept:    result.Kept,
	})
}

func (h *Handler) RecomputeStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecomputeStandings")
	defer span.End()

	competitionID := pathCompetitionID(r)
	rows, err := h.identityService.Recompute(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "recompute standings failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standingsToDTO(rows))
}

func (h *Handler) RecomputeAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecomputeAll")
	defer span.End()

	result, err := h.identityService.RecomputeAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "recompute all failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "recompute all finished",
		"actor", adminActorFromContext(ctx),
		"competitions", result.CompetitionCount,
		"failed", result.FailedCount,
	)
	writeSuccess(ctx, w, http.StatusOK, recomputeAllToDTO(result))
}
