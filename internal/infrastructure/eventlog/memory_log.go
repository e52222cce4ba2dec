package eventlog

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/competition-engine/internal/domain/matchevent"
)

const DefaultMaxEventsPerMatch = 500

// MemoryLog keeps the newest events of each match in process.
type MemoryLog struct {
	mu          sync.RWMutex
	maxPerMatch int
	items       map[string][]matchevent.Event
	seen        map[string]struct{}
}

func NewMemoryLog(maxPerMatch int) *MemoryLog {
	if maxPerMatch <= 0 {
		maxPerMatch = DefaultMaxEventsPerMatch
	}
	return &MemoryLog{
		maxPerMatch: maxPerMatch,
		items:       make(map[string][]matchevent.Event),
		seen:        make(map[string]struct{}),
	}
}

func (l *MemoryLog) Append(_ context.Context, event matchevent.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.seen[event.ID]; dup {
		return nil
	}
	l.seen[event.ID] = struct{}{}

	key := matchKey(event.CompetitionID, event.MatchID)
	events := append(l.items[key], event)
	if overflow := len(events) - l.maxPerMatch; overflow > 0 {
		for _, dropped := range events[:overflow] {
			delete(l.seen, dropped.ID)
		}
		events = append([]matchevent.Event(nil), events[overflow:]...)
	}
	l.items[key] = events

	return nil
}

func (l *MemoryLog) List(_ context.Context, competitionID, matchID string) ([]matchevent.Event, error) {
	l.mu.RLock()
	events := append([]matchevent.Event(nil), l.items[matchKey(competitionID, matchID)]...)
	l.mu.RUnlock()

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
	return events, nil
}

func matchKey(competitionID, matchID string) string {
	return competitionID + "\x00" + matchID
}

// NopLog drops every event.
type NopLog struct{}

func (NopLog) Append(context.Context, matchevent.Event) error { return nil }

func (NopLog) List(context.Context, string, string) ([]matchevent.Event, error) { return nil, nil }
