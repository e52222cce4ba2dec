package matchevent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidEvent = errors.New("invalid match event")

type Kind string

const (
	KindGoal         Kind = "goal"
	KindCard         Kind = "card"
	KindSubstitution Kind = "substitution"
	KindStatus       Kind = "status"
	KindNote         Kind = "note"
)

func ParseKind(v string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(v))); k {
	case KindGoal, KindCard, KindSubstitution, KindStatus, KindNote:
		return k, true
	default:
		return "", false
	}
}

// Event is one entry of a match's live timeline. The timeline lives outside
// the competition aggregate and may lag or miss entries.
type Event struct {
	ID            string
	CompetitionID string
	MatchID       string
	Kind          Kind
	Side          string
	Minute        *int
	Player        string
	Detail        string
	OccurredAt    time.Time
}

func (e Event) Validate() error {
	switch {
	case strings.TrimSpace(e.ID) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidEvent)
	case strings.TrimSpace(e.CompetitionID) == "" || strings.TrimSpace(e.MatchID) == "":
		return fmt.Errorf("%w: competition and match are required", ErrInvalidEvent)
	case e.Minute != nil && *e.Minute < 0:
		return fmt.Errorf("%w: minute must be non-negative", ErrInvalidEvent)
	}
	if _, ok := ParseKind(string(e.Kind)); !ok {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	return nil
}

// Log is the append-only live-event channel.
type Log interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, competitionID, matchID string) ([]Event, error)
}
