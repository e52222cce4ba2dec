package competition

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/competition-engine/internal/domain/naming"
)

// TransitionInput moves a match to Status. Scores and minute are optional
// and may accompany any transition, including a same-status update.
type TransitionInput struct {
	Status     Status
	HomeScore  *int
	AwayScore  *int
	LiveMinute *int
}

// Transition applies a lifecycle step to a fixture. Finalizing moves the
// match into Results and regenerates standings.
func (c *Competition) Transition(matchID string, in TransitionInput, rules Rules) (Match, error) {
	idx := c.fixtureIndex(matchID)
	if idx < 0 {
		if c.resultIndex(matchID) >= 0 {
			return Match{}, fmt.Errorf("%w: match %s is already completed (%w)", ErrInvalidTransition, matchID, ErrMatchNotFound)
		}
		return Match{}, fmt.Errorf("%w: match=%s", ErrMatchNotFound, matchID)
	}

	match := c.Fixtures[idx].Clone()
	target := in.Status
	if target == "" {
		target = match.Status
	}
	if !target.Valid() {
		return Match{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, in.Status)
	}

	if target == match.Status {
		if match.Status.Terminal() {
			return Match{}, fmt.Errorf("%w: match %s is %s", ErrInvalidTransition, matchID, match.Status)
		}
	} else if !CanTransition(match.Status, target) {
		return Match{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, match.Status, target)
	}

	if negative(in.HomeScore) || negative(in.AwayScore) || negative(in.LiveMinute) {
		return Match{}, fmt.Errorf("%w: scores and minute must be non-negative", ErrInvalidMatch)
	}
	if in.HomeScore != nil {
		match.HomeScore = copyInt(in.HomeScore)
	}
	if in.AwayScore != nil {
		match.AwayScore = copyInt(in.AwayScore)
	}
	if in.LiveMinute != nil {
		match.LiveMinute = copyInt(in.LiveMinute)
	}

	if target != StatusCompleted {
		match.Status = target
		c.Fixtures[idx] = match
		return match, nil
	}

	if match.HomeScore == nil || match.AwayScore == nil {
		return Match{}, fmt.Errorf("%w: match %s cannot complete without both scores", ErrInvalidTransition, matchID)
	}
	match.Status = StatusCompleted
	c.Fixtures = append(c.Fixtures[:idx:idx], c.Fixtures[idx+1:]...)
	c.Results = append(c.Results, match)
	c.Recompute(rules)

	return match, nil
}

// RecordGoal increments one side's score of a live match.
func (c *Competition) RecordGoal(matchID string, side Side, minute *int) (Match, error) {
	idx := c.fixtureIndex(matchID)
	if idx < 0 {
		if c.resultIndex(matchID) >= 0 {
			return Match{}, fmt.Errorf("%w: match %s is already completed (%w)", ErrInvalidTransition, matchID, ErrMatchNotFound)
		}
		return Match{}, fmt.Errorf("%w: match=%s", ErrMatchNotFound, matchID)
	}

	match := c.Fixtures[idx].Clone()
	if match.Status != StatusLive {
		return Match{}, fmt.Errorf("%w: goals can only be reported for live matches, match %s is %s", ErrInvalidTransition, matchID, match.Status)
	}
	if negative(minute) {
		return Match{}, fmt.Errorf("%w: minute must be non-negative", ErrInvalidMatch)
	}

	home, away := 0, 0
	if match.HomeScore != nil {
		home = *match.HomeScore
	}
	if match.AwayScore != nil {
		away = *match.AwayScore
	}
	switch side {
	case SideHome:
		home++
	case SideAway:
		away++
	default:
		return Match{}, fmt.Errorf("%w: unknown side %q", ErrInvalidMatch, side)
	}
	match.HomeScore = IntPtr(home)
	match.AwayScore = IntPtr(away)
	if minute != nil {
		match.LiveMinute = copyInt(minute)
	}

	c.Fixtures[idx] = match
	return match, nil
}

// ScheduleMatch appends a new fixture in the scheduled state.
func (c *Competition) ScheduleMatch(m Match) (Match, error) {
	m.ID = strings.TrimSpace(m.ID)
	m.Home = strings.TrimSpace(m.Home)
	m.Away = strings.TrimSpace(m.Away)
	if m.ID == "" {
		return Match{}, fmt.Errorf("%w: match id is required", ErrInvalidMatch)
	}
	if _, exists := c.FindMatch(m.ID); exists {
		return Match{}, fmt.Errorf("%w: match id %s already exists", ErrInvalidMatch, m.ID)
	}
	homeKey, awayKey := naming.Canonicalize(m.Home), naming.Canonicalize(m.Away)
	if homeKey == "" || awayKey == "" {
		return Match{}, fmt.Errorf("%w: both team names are required", ErrInvalidMatch)
	}
	if homeKey == awayKey {
		return Match{}, fmt.Errorf("%w: %q cannot play itself", ErrInvalidMatch, m.Home)
	}

	m.Status = StatusScheduled
	m.HomeScore = nil
	m.AwayScore = nil
	m.LiveMinute = nil
	c.Fixtures = append(c.Fixtures, m)

	return m, nil
}

// RegisterTeam adds an official team under a freshly drawn id.
func (c *Competition) RegisterTeam(t Team, ids TeamIDSource, rules Rules) (Team, error) {
	t.Name = strings.TrimSpace(t.Name)
	key := naming.Canonicalize(t.Name)
	if key == "" {
		return Team{}, fmt.Errorf("%w: team name is required", ErrInvalidTeam)
	}
	for _, existing := range c.Teams {
		if naming.Canonicalize(existing.Name) == key {
			return Team{}, fmt.Errorf("%w: %q collides with team %d %q", ErrDuplicateTeam, t.Name, existing.ID, existing.Name)
		}
	}

	id, err := ids(c.MaxTeamID())
	if err != nil {
		return Team{}, fmt.Errorf("allocate team id: %w", err)
	}
	t.ID = id
	t.stats = Stats{}
	t = t.clone()
	c.Teams = append(c.Teams, t)
	c.Recompute(rules)

	registered, _ := c.TeamByID(t.ID)
	return registered, nil
}
