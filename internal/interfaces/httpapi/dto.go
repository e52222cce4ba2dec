package httpapi

import (
	"context"
	"time"

	"github.com/riskibarqy/competition-engine/internal/domain/competition"
	"github.com/riskibarqy/competition-engine/internal/domain/matchevent"
	"github.com/riskibarqy/competition-engine/internal/usecase"
)

type createCompetitionRequest struct {
	ID    string   `json:"id" validate:"omitempty,max=120"`
	Name  string   `json:"name" validate:"required,max=200"`
	Teams []string `json:"teams" validate:"max=200,dive,required"`
}

type registerTeamRequest struct {
	Name     string               `json:"name" validate:"required,max=200"`
	CrestURL string               `json:"crestUrl" validate:"omitempty,url"`
	Players  []competition.Member `json:"players"`
	Staff    []competition.Member `json:"staff"`
}

type scheduleMatchRequest struct {
	ID       string `json:"id"`
	Home     string `json:"home" validate:"required"`
	Away     string `json:"away" validate:"required"`
	FullDate string `json:"fullDate"`
}

type transitionRequest struct {
	Status     string `json:"status" validate:"required"`
	HomeScore  *int   `json:"homeScore" validate:"omitempty,gte=0"`
	AwayScore  *int   `json:"awayScore" validate:"omitempty,gte=0"`
	LiveMinute *int   `json:"liveMinute" validate:"omitempty,gte=0"`
}

type goalRequest struct {
	Side   string `json:"side" validate:"required,oneof=home away"`
	Minute *int   `json:"minute" validate:"omitempty,gte=0"`
	Player string `json:"player"`
}

type eventRequest struct {
	Kind   string `json:"kind" validate:"required"`
	Side   string `json:"side" validate:"omitempty,oneof=home away"`
	Minute *int   `json:"minute" validate:"omitempty,gte=0"`
	Player string `json:"player"`
	Detail string `json:"detail" validate:"max=500"`
}

type adoptRequest struct {
	Names []string `json:"names" validate:"dive,required"`
}

type renameRequest struct {
	GhostName    string `json:"ghostName" validate:"required"`
	TargetTeamID int64  `json:"targetTeamId" validate:"gt=0"`
}

type mergeRequest struct {
	PrimaryID   int64 `json:"primaryId" validate:"gt=0"`
	SecondaryID int64 `json:"secondaryId" validate:"gt=0,nefield=PrimaryID"`
	Confirm     bool  `json:"confirm"`
}

type statsDTO struct {
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Drawn          int    `json:"drawn"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	GoalDifference int    `json:"goalDifference"`
	Points         int    `json:"points"`
	Form           string `json:"form"`
}

type teamDTO struct {
	ID       int64                `json:"id"`
	Name     string               `json:"name"`
	CrestURL string               `json:"crestUrl,omitempty"`
	Players  []competition.Member `json:"players"`
	Staff    []competition.Member `json:"staff"`
	Stats    statsDTO             `json:"stats"`
}

type matchDTO struct {
	ID         string `json:"id"`
	Home       string `json:"home"`
	Away       string `json:"away"`
	HomeScore  *int   `json:"homeScore"`
	AwayScore  *int   `json:"awayScore"`
	Status     string `json:"status"`
	FullDate   string `json:"fullDate,omitempty"`
	LiveMinute *int   `json:"liveMinute,omitempty"`
}

type competitionDTO struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Version  int64      `json:"version"`
	Teams    []teamDTO  `json:"teams"`
	Fixtures []matchDTO `json:"fixtures"`
	Results  []matchDTO `json:"results"`
}

type competitionSummaryDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Version  int64  `json:"version"`
	Teams    int    `json:"teams"`
	Fixtures int    `json:"fixtures"`
	Results  int    `json:"results"`
}

type standingDTO struct {
	Position int      `json:"position"`
	TeamID   int64    `json:"teamId"`
	Name     string   `json:"name"`
	CrestURL string   `json:"crestUrl,omitempty"`
	Stats    statsDTO `json:"stats"`
}

type matchUpdateDTO struct {
	Match       matchDTO      `json:"match"`
	Standings   []standingDTO `json:"standings"`
	EventLogged bool          `json:"eventLogged"`
}

type eventDTO struct {
	ID            string    `json:"id"`
	CompetitionID string    `json:"competitionId"`
	MatchID       string    `json:"matchId"`
	Kind          string    `json:"kind"`
	Side          string    `json:"side,omitempty"`
	Minute        *int      `json:"minute,omitempty"`
	Player        string    `json:"player,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type ghostDTO struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	Matches         int    `json:"matches"`
	SuggestedTeamID int64  `json:"suggestedTeamId,omitempty"`
}

type zombieDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type auditDTO struct {
	CompetitionID string      `json:"competitionId"`
	Clean         bool        `json:"clean"`
	Ghosts        []ghostDTO  `json:"ghosts"`
	Zombies       []zombieDTO `json:"zombies"`
	Duplicates    [][]string  `json:"duplicates"`
	Collisions    [][]int64   `json:"collisions"`
}

type renameResultDTO struct {
	Team           teamDTO `json:"team"`
	RewrittenSides int     `json:"rewrittenSides"`
}

type mergeResultDTO struct {
	Primary        teamDTO `json:"primary"`
	Removed        teamDTO `json:"removed"`
	RewrittenSides int     `json:"rewrittenSides"`
	MembersAdded   int     `json:"membersAdded"`
}

type dedupDTO struct {
	Dropped []matchDTO `json:"dropped"`
	Kept    int        `json:"kept"`
}

type recomputeItemDTO struct {
	CompetitionID string `json:"competitionId"`
	Status        string `json:"status"`
	Teams         int    `json:"teams"`
	DurationMs    int64  `json:"durationMs"`
	Message       string `json:"message,omitempty"`
}

type recomputeAllDTO struct {
	CompetitionCount int                `json:"competitionCount"`
	SuccessCount     int                `json:"successCount"`
	FailedCount      int                `json:"failedCount"`
	WorkerCount      int                `json:"workerCount"`
	Items            []recomputeItemDTO `json:"items"`
}

// membersToDTO keeps empty rosters rendering as [] rather than null.
func membersToDTO(in []competition.Member) []competition.Member {
	if in == nil {
		return []competition.Member{}
	}
	return in
}

func statsToDTO(s competition.Stats) statsDTO {
	return statsDTO{
		Played:         s.Played,
		Won:            s.Won,
		Drawn:          s.Drawn,
		Lost:           s.Lost,
		GoalsFor:       s.GoalsFor,
		GoalsAgainst:   s.GoalsAgainst,
		GoalDifference: s.GoalDifference,
		Points:         s.Points,
		Form:           s.Form,
	}
}

func teamToDTO(t competition.Team) teamDTO {
	return teamDTO{
		ID:       t.ID,
		Name:     t.Name,
		CrestURL: t.CrestURL,
		Players:  membersToDTO(t.Players),
		Staff:    membersToDTO(t.Staff),
		Stats:    statsToDTO(t.Stats()),
	}
}

func teamsToDTO(in []competition.Team) []teamDTO {
	out := make([]teamDTO, 0, len(in))
	for _, t := range in {
		out = append(out, teamToDTO(t))
	}
	return out
}

func matchToDTO(m competition.Match) matchDTO {
	return matchDTO{
		ID:         m.ID,
		Home:       m.Home,
		Away:       m.Away,
		HomeScore:  m.HomeScore,
		AwayScore:  m.AwayScore,
		Status:     string(m.Status),
		FullDate:   m.FullDate,
		LiveMinute: m.LiveMinute,
	}
}

func matchesToDTO(in []competition.Match) []matchDTO {
	out := make([]matchDTO, 0, len(in))
	for _, m := range in {
		out = append(out, matchToDTO(m))
	}
	return out
}

func competitionToDTO(ctx context.Context, c competition.Competition) competitionDTO {
	_, span := startSpan(ctx, "httpapi.competitionToDTO")
	defer span.End()

	return competitionDTO{
		ID:       c.ID,
		Name:     c.Name,
		Version:  c.Version,
		Teams:    teamsToDTO(c.Teams),
		Fixtures: matchesToDTO(c.Fixtures),
		Results:  matchesToDTO(c.Results),
	}
}

func competitionSummaryToDTO(c competition.Competition) competitionSummaryDTO {
	return competitionSummaryDTO{
		ID:       c.ID,
		Name:     c.Name,
		Version:  c.Version,
		Teams:    len(c.Teams),
		Fixtures: len(c.Fixtures),
		Results:  len(c.Results),
	}
}

func standingsToDTO(rows []competition.Standing) []standingDTO {
	out := make([]standingDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, standingDTO{
			Position: row.Position,
			TeamID:   row.TeamID,
			Name:     row.Name,
			CrestURL: row.CrestURL,
			Stats:    statsToDTO(row.Stats),
		})
	}
	return out
}

func matchUpdateToDTO(ctx context.Context, v usecase.MatchUpdate) matchUpdateDTO {
	_, span := startSpan(ctx, "httpapi.matchUpdateToDTO")
	defer span.End()

	return matchUpdateDTO{
		Match:       matchToDTO(v.Match),
		Standings:   standingsToDTO(v.Standings),
		EventLogged: v.EventLogged,
	}
}

func eventToDTO(e matchevent.Event) eventDTO {
	return eventDTO{
		ID:            e.ID,
		CompetitionID: e.CompetitionID,
		MatchID:       e.MatchID,
		Kind:          string(e.Kind),
		Side:          e.Side,
		Minute:        e.Minute,
		Player:        e.Player,
		Detail:        e.Detail,
		OccurredAt:    e.OccurredAt,
	}
}

func auditToDTO(ctx context.Context, r competition.AuditReport) auditDTO {
	_, span := startSpan(ctx, "httpapi.auditToDTO")
	defer span.End()

	ghosts := make([]ghostDTO, 0, len(r.Ghosts))
	for _, g := range r.Ghosts {
		ghosts = append(ghosts, ghostDTO{Key: g.Key, Name: g.Name, Matches: g.Matches, SuggestedTeamID: g.SuggestedTeamID})
	}
	zombies := make([]zombieDTO, 0, len(r.Zombies))
	for _, z := range r.Zombies {
		zombies = append(zombies, zombieDTO{ID: z.ID, Name: z.Name})
	}
	duplicates := r.Duplicates
	if duplicates == nil {
		duplicates = [][]string{}
	}
	collisions := r.Collisions
	if collisions == nil {
		collisions = [][]int64{}
	}

	return auditDTO{
		CompetitionID: r.CompetitionID,
		Clean:         r.Clean(),
		Ghosts:        ghosts,
		Zombies:       zombies,
		Duplicates:    duplicates,
		Collisions:    collisions,
	}
}

func recomputeAllToDTO(v usecase.RecomputeAllResult) recomputeAllDTO {
	items := make([]recomputeItemDTO, 0, len(v.Items))
	for _, item := range v.Items {
		items = append(items, recomputeItemDTO{
			CompetitionID: item.CompetitionID,
			Status:        item.Status,
			Teams:         item.Teams,
			DurationMs:    item.DurationMs,
			Message:       item.Message,
		})
	}
	return recomputeAllDTO{
		CompetitionCount: v.CompetitionCount,
		SuccessCount:     v.SuccessCount,
		FailedCount:      v.FailedCount,
		WorkerCount:      v.WorkerCount,
		Items:            items,
	}
}
