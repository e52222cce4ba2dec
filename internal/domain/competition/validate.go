package competition

import (
	"fmt"
	"strings"
)

// Validate checks the structural invariants of a stored aggregate. Name
// collisions between roster teams are not structural; Audit reports them.
func (c Competition) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: competition id is required", ErrMalformedAggregate)
	}

	teamIDs := make(map[int64]struct{}, len(c.Teams))
	for _, t := range c.Teams {
		if t.ID <= 0 {
			return fmt.Errorf("%w: team %q has non-positive id %d", ErrMalformedAggregate, t.Name, t.ID)
		}
		if _, exists := teamIDs[t.ID]; exists {
			return fmt.Errorf("%w: duplicate team id %d", ErrMalformedAggregate, t.ID)
		}
		teamIDs[t.ID] = struct{}{}
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: team %d has empty name", ErrMalformedAggregate, t.ID)
		}
	}

	matchIDs := make(map[string]string, len(c.Fixtures)+len(c.Results))
	check := func(list string, m Match) error {
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("%w: %s contains a match without id", ErrMalformedAggregate, list)
		}
		if prev, exists := matchIDs[m.ID]; exists {
			return fmt.Errorf("%w: match %s appears in %s and %s", ErrMalformedAggregate, m.ID, prev, list)
		}
		matchIDs[m.ID] = list
		if strings.TrimSpace(m.Home) == "" || strings.TrimSpace(m.Away) == "" {
			return fmt.Errorf("%w: match %s is missing a team name", ErrMalformedAggregate, m.ID)
		}
		if !m.Status.Valid() {
			return fmt.Errorf("%w: match %s has unknown status %q", ErrMalformedAggregate, m.ID, m.Status)
		}
		if negative(m.HomeScore) || negative(m.AwayScore) || negative(m.LiveMinute) {
			return fmt.Errorf("%w: match %s has a negative score or minute", ErrMalformedAggregate, m.ID)
		}
		return nil
	}

	for _, m := range c.Fixtures {
		if err := check("fixtures", m); err != nil {
			return err
		}
		if m.Status == StatusCompleted {
			return fmt.Errorf("%w: completed match %s is still in fixtures", ErrMalformedAggregate, m.ID)
		}
	}
	for _, m := range c.Results {
		if err := check("results", m); err != nil {
			return err
		}
		if m.Status != StatusCompleted {
			return fmt.Errorf("%w: result %s has status %q", ErrMalformedAggregate, m.ID, m.Status)
		}
		if m.HomeScore == nil || m.AwayScore == nil {
			return fmt.Errorf("%w: result %s is missing a score", ErrMalformedAggregate, m.ID)
		}
	}

	return nil
}

func negative(v *int) bool {
	return v != nil && *v < 0
}
