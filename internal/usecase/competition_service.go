package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/riskibarqy/competition-engine/internal/domain/competition"
	"github.com/riskibarqy/competition-engine/internal/platform/id"
)

type CreateCompetitionInput struct {
	ID    string
	Name  string
	Teams []string
}

type RegisterTeamInput struct {
	CompetitionID string
	Name          string
	CrestURL      string
	Players       []competition.Member
	Staff         []competition.Member
}

type ScheduleMatchInput struct {
	CompetitionID string
	MatchID       string
	Home          string
	Away          string
	FullDate      string
}

type CompetitionService struct {
	repo  competition.Repository
	ids   id.Generator
	rules competition.Rules
}

func NewCompetitionService(repo competition.Repository, ids id.Generator, rules competition.Rules) *CompetitionService {
	return &CompetitionService{
		repo:  repo,
		ids:   ids,
		rules: rules,
	}
}

// Create registers a new competition. When no id is given one is derived
// from the name; initial teams receive ids above every existing team.
func (s *CompetitionService) Create(ctx context.Context, input CreateCompetitionInput) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Create")
	defer span.End()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return competition.Competition{}, fmt.Errorf("%w: competition name is required", ErrInvalidInput)
	}
	compID := strings.TrimSpace(input.ID)
	if compID == "" {
		compID = slug.Make(name)
	}
	if compID == "" {
		return competition.Competition{}, fmt.Errorf("%w: cannot derive competition id from %q", ErrInvalidInput, name)
	}

	item := competition.Competition{ID: compID, Name: name}
	ids := teamIDSource(ctx, s.repo)
	for _, teamName := range input.Teams {
		if _, err := item.RegisterTeam(competition.Team{Name: teamName}, ids, s.rules); err != nil {
			if errors.Is(err, competition.ErrInvalidTeam) || errors.Is(err, competition.ErrDuplicateTeam) {
				return competition.Competition{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			return competition.Competition{}, err
		}
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return competition.Competition{}, fmt.Errorf("create competition: %w", err)
	}

	created, err := s.Get(ctx, compID)
	if err != nil {
		return competition.Competition{}, err
	}
	return created, nil
}

func (s *CompetitionService) Get(ctx context.Context, competitionID string) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Get")
	defer span.End()

	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return competition.Competition{}, fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}

	item, exists, err := s.repo.Get(ctx, competitionID)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition: %w", err)
	}
	if !exists {
		return competition.Competition{}, fmt.Errorf("%w: %w: competition=%s", ErrNotFound, competition.ErrCompetitionNotFound, competitionID)
	}

	return item, nil
}

func (s *CompetitionService) List(ctx context.Context) ([]competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.List")
	defer span.End()

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}

	return items, nil
}

// Standings returns the display table. Ranking is never persisted.
func (s *CompetitionService) Standings(ctx context.Context, competitionID string) ([]competition.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Standings")
	defer span.End()

	item, err := s.Get(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	return competition.Rank(item.Teams), nil
}

func (s *CompetitionService) RegisterTeam(ctx context.Context, input RegisterTeamInput) (competition.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.RegisterTeam")
	defer span.End()

	competitionID, err := requireCompetitionID(input.CompetitionID)
	if err != nil {
		return competition.Team{}, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return competition.Team{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	ids := teamIDSource(ctx, s.repo)
	var registered competition.Team
	_, err = s.repo.Transact(ctx, competitionID, func(current competition.Competition) (competition.Competition, error) {
		team, err := current.RegisterTeam(competition.Team{
			Name:     input.Name,
			CrestURL: strings.TrimSpace(input.CrestURL),
			Players:  input.Players,
			Staff:    input.Staff,
		}, ids, s.rules)
		if err != nil {
			return competition.Competition{}, err
		}
		registered = team
		return current, nil
	})
	if err != nil {
		return competition.Team{}, fmt.Errorf("register team: %w", err)
	}

	return registered, nil
}

// ScheduleMatch appends a fixture. The match id is generated once, outside
// the transaction, so retries reuse it.
func (s *CompetitionService) ScheduleMatch(ctx context.Context, input ScheduleMatchInput) (competition.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.ScheduleMatch")
	defer span.End()

	competitionID, err := requireCompetitionID(input.CompetitionID)
	if err != nil {
		return competition.Match{}, err
	}
	if strings.TrimSpace(input.Home) == "" || strings.TrimSpace(input.Away) == "" {
		return competition.Match{}, fmt.Errorf("%w: home and away teams are required", ErrInvalidInput)
	}

	matchID := strings.TrimSpace(input.MatchID)
	if matchID == "" {
		matchID, err = s.ids.NewID()
		if err != nil {
			return competition.Match{}, fmt.Errorf("generate match id: %w", err)
		}
	}

	var scheduled competition.Match
	_, err = s.repo.Transact(ctx, competitionID, func(current competition.Competition) (competition.Competition, error) {
		match, err := current.ScheduleMatch(competition.Match{
			ID:       matchID,
			Home:     input.Home,
			Away:     input.Away,
			FullDate: strings.TrimSpace(input.FullDate),
		})
		if err != nil {
			return competition.Competition{}, err
		}
		scheduled = match
		return current, nil
	})
	if err != nil {
		return competition.Match{}, fmt.Errorf("schedule match: %w", err)
	}

	return scheduled, nil
}

func requireCompetitionID(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}
	return v, nil
}

// teamIDSource draws team ids from the repository's shared counter.
func teamIDSource(ctx context.Context, repo competition.Repository) competition.TeamIDSource {
	return func(after int64) (int64, error) {
		return repo.NextTeamID(ctx, after)
	}
}

// IsRetryable reports whether the caller may repeat the request unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, competition.ErrContention) || errors.Is(err, ErrDependencyUnavailable)
}
