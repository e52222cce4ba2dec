package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/competition-engine/internal/domain/competition"
	"github.com/riskibarqy/competition-engine/internal/domain/matchevent"
	"github.com/riskibarqy/competition-engine/internal/platform/id"
	"github.com/riskibarqy/competition-engine/internal/platform/logging"
)

type TransitionMatchInput struct {
	CompetitionID string
	MatchID       string
	Status        string
	HomeScore     *int
	AwayScore     *int
	LiveMinute    *int
}

type ReportGoalInput struct {
	CompetitionID string
	MatchID       string
	Side          string
	Minute        *int
	Player        string
}

type RecordEventInput struct {
	CompetitionID string
	MatchID       string
	Kind          string
	Side          string
	Minute        *int
	Player        string
	Detail        string
}

// MatchUpdate is the committed match plus whether its timeline entry made it
// into the event log.
type MatchUpdate struct {
	Match       competition.Match
	Standings   []competition.Standing
	EventLogged bool
}

type MatchService struct {
	repo   competition.Repository
	events matchevent.Log
	ids    id.Generator
	clock  clockwork.Clock
	rules  competition.Rules
	logger *logging.Logger
}

func NewMatchService(
	repo competition.Repository,
	events matchevent.Log,
	ids id.Generator,
	clock clockwork.Clock,
	rules competition.Rules,
	logger *logging.Logger,
) *MatchService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchService{
		repo:   repo,
		events: events,
		ids:    ids,
		clock:  clock,
		rules:  rules,
		logger: logger,
	}
}

// Transition commits a lifecycle step and then appends a status event.
func (s *MatchService) Transition(ctx context.Context, input TransitionMatchInput) (MatchUpdate, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Transition")
	defer span.End()

	competitionID, matchID, err := requireMatchRef(input.CompetitionID, input.MatchID)
	if err != nil {
		return MatchUpdate{}, err
	}

	var target competition.Status
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, ok := competition.ParseStatus(raw)
		if !ok {
			return MatchUpdate{}, fmt.Errorf("%w: unknown status %q", competition.ErrInvalidTransition, raw)
		}
		target = status
	}

	var (
		updated  competition.Match
		previous competition.Status
	)
	committed, err := s.repo.Transact(ctx, competitionID, func(current competition.Competition) (competition.Competition, error) {
		if before, ok := current.FindMatch(matchID); ok {
			previous = before.Status
		}
		match, err := current.Transition(matchID, competition.TransitionInput{
			Status:     target,
			HomeScore:  input.HomeScore,
			AwayScore:  input.AwayScore,
			LiveMinute: input.LiveMinute,
		}, s.rules)
		if err != nil {
			return competition.Competition{}, err
		}
		updated = match
		return current, nil
	})
	if err != nil {
		return MatchUpdate{}, fmt.Errorf("transition match: %w", err)
	}

	detail := string(updated.Status)
	if previous != "" && previous != updated.Status {
		detail = string(previous) + " -> " + string(updated.Status)
	}
	logged := s.appendEvent(ctx, matchevent.Event{
		CompetitionID: competitionID,
		MatchID:       matchID,
		Kind:          matchevent.KindStatus,
		Minute:        updated.LiveMinute,
		Detail:        detail,
	})

	return MatchUpdate{
		Match:       updated,
		Standings:   competition.Rank(committed.Teams),
		EventLogged: logged,
	}, nil
}

// ReportGoal bumps one side's score of a live match and records a goal event.
func (s *MatchService) ReportGoal(ctx context.Context, input ReportGoalInput) (MatchUpdate, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ReportGoal")
	defer span.End()

	competitionID, matchID, err := requireMatchRef(input.CompetitionID, input.MatchID)
	if err != nil {
		return MatchUpdate{}, err
	}
	side, ok := competition.ParseSide(input.Side)
	if !ok {
		return MatchUpdate{}, fmt.Errorf("%w: side must be home or away", ErrInvalidInput)
	}

	var updated competition.Match
	committed, err := s.repo.Transact(ctx, competitionID, func(current competition.Competition) (competition.Competition, error) {
		match, err := current.RecordGoal(matchID, side, input.Minute)
		if err != nil {
			return competition.Competition{}, err
		}
		updated = match
		return current, nil
	})
	if err != nil {
		return MatchUpdate{}, fmt.Errorf("report goal: %w", err)
	}

	logged := s.appendEvent(ctx, matchevent.Event{
		CompetitionID: competitionID,
		MatchID:       matchID,
		Kind:          matchevent.KindGoal,
		Side:          string(side),
		Minute:        input.Minute,
		Player:        strings.TrimSpace(input.Player),
		Detail:        fmt.Sprintf("%d-%d", derefInt(updated.HomeScore), derefInt(updated.AwayScore)),
	})

	return MatchUpdate{
		Match:       updated,
		Standings:   competition.Rank(committed.Teams),
		EventLogged: logged,
	}, nil
}

// RecordEvent writes a timeline entry without touching the aggregate. Unlike
// the post-commit appends, a log failure is returned to the caller here.
func (s *MatchService) RecordEvent(ctx context.Context, input RecordEventInput) (matchevent.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RecordEvent")
	defer span.End()

	competitionID, matchID, err := requireMatchRef(input.CompetitionID, input.MatchID)
	if err != nil {
		return matchevent.Event{}, err
	}
	kind, ok := matchevent.ParseKind(input.Kind)
	if !ok {
		return matchevent.Event{}, fmt.Errorf("%w: unknown event kind %q", ErrInvalidInput, input.Kind)
	}
	side := strings.TrimSpace(input.Side)
	if side != "" {
		parsed, ok := competition.ParseSide(side)
		if !ok {
			return matchevent.Event{}, fmt.Errorf("%w: side must be home or away", ErrInvalidInput)
		}
		side = string(parsed)
	}

	if err := s.requireMatch(ctx, competitionID, matchID); err != nil {
		return matchevent.Event{}, err
	}

	event, err := s.newEvent(matchevent.Event{
		CompetitionID: competitionID,
		MatchID:       matchID,
		Kind:          kind,
		Side:          side,
		Minute:        input.Minute,
		Player:        strings.TrimSpace(input.Player),
		Detail:        strings.TrimSpace(input.Detail),
	})
	if err != nil {
		return matchevent.Event{}, err
	}
	if err := event.Validate(); err != nil {
		return matchevent.Event{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.events.Append(ctx, event); err != nil {
		return matchevent.Event{}, fmt.Errorf("%w: append match event: %v", ErrDependencyUnavailable, err)
	}

	return event, nil
}

func (s *MatchService) ListEvents(ctx context.Context, competitionID, matchID string) ([]matchevent.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListEvents")
	defer span.End()

	competitionID, matchID, err := requireMatchRef(competitionID, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMatch(ctx, competitionID, matchID); err != nil {
		return nil, err
	}

	events, err := s.events.List(ctx, competitionID, matchID)
	if err != nil {
		return nil, fmt.Errorf("%w: list match events: %v", ErrDependencyUnavailable, err)
	}

	return events, nil
}

func (s *MatchService) requireMatch(ctx context.Context, competitionID, matchID string) error {
	item, exists, err := s.repo.Get(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("get competition: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %w: competition=%s", ErrNotFound, competition.ErrCompetitionNotFound, competitionID)
	}
	if _, ok := item.FindMatch(matchID); !ok {
		return fmt.Errorf("%w: %w: match=%s", ErrNotFound, competition.ErrMatchNotFound, matchID)
	}
	return nil
}

// appendEvent is best effort: the aggregate is already committed, so a log
// failure is reported back as EventLogged=false and never undone.
func (s *MatchService) appendEvent(ctx context.Context, event matchevent.Event) bool {
	event, err := s.newEvent(event)
	if err == nil {
		err = s.events.Append(ctx, event)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "match event not logged",
			"competition_id", event.CompetitionID,
			"match_id", event.MatchID,
			"kind", string(event.Kind),
			"error", err,
		)
		return false
	}
	return true
}

func (s *MatchService) newEvent(event matchevent.Event) (matchevent.Event, error) {
	if s.events == nil {
		return event, errors.New("event log is not configured")
	}
	eventID, err := s.ids.NewID()
	if err != nil {
		return event, fmt.Errorf("generate event id: %w", err)
	}
	event.ID = eventID
	event.OccurredAt = s.clock.Now().UTC()
	return event, nil
}

func requireMatchRef(competitionID, matchID string) (string, string, error) {
	competitionID, err := requireCompetitionID(competitionID)
	if err != nil {
		return "", "", err
	}
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return "", "", fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	return competitionID, matchID, nil
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
