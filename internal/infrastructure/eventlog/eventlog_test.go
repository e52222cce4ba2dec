package eventlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/competition-engine/internal/domain/matchevent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(id string, at time.Time) matchevent.Event {
	return matchevent.Event{
		ID:            id,
		CompetitionID: "c1",
		MatchID:       "m1",
		Kind:          matchevent.KindGoal,
		Side:          "home",
		OccurredAt:    at,
	}
}

func TestMemoryLog_AppendListOrderedAndDeduplicated(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog(10)
	base := time.Date(2025, 8, 1, 15, 0, 0, 0, time.UTC)

	require.NoError(t, log.Append(ctx, event("e2", base.Add(2*time.Minute))))
	require.NoError(t, log.Append(ctx, event("e1", base.Add(time.Minute))))
	require.NoError(t, log.Append(ctx, event("e1", base.Add(time.Minute))))

	got, err := log.List(ctx, "c1", "m1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "e2", got[1].ID)

	other, err := log.List(ctx, "c1", "m2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryLog_BoundedPerMatch(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog(2)
	base := time.Date(2025, 8, 1, 15, 0, 0, 0, time.UTC)

	for i, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, log.Append(ctx, event(id, base.Add(time.Duration(i)*time.Minute))))
	}

	got, err := log.List(ctx, "c1", "m1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e2", got[0].ID)
	assert.Equal(t, "e3", got[1].ID)
}

func TestMemoryLog_RejectsInvalidEvents(t *testing.T) {
	err := NewMemoryLog(0).Append(context.Background(), matchevent.Event{ID: "e1"})
	assert.True(t, errors.Is(err, matchevent.ErrInvalidEvent))
}

func TestEventSubject(t *testing.T) {
	assert.Equal(t, "competition.events.EDRNKB9I60P3A.DKN32.goal", eventSubject("competition.events", "swz-2025", "m.1", "goal"))
	assert.Equal(t, "competition.events.C4G64AJ3.7ON0.>", eventSubject("competition.events", "a b*c", ">.", ">"))
	assert.Equal(t, "p._.DKOG.note", eventSubject("p", "", "m1", "note"))
}

func TestSubjectToken_DistinctIDsNeverShareASubject(t *testing.T) {
	ids := []string{"a.b", "a_b", "a*b", "a>b", "a b", "a", "_", " a"}
	seen := make(map[string]string, len(ids))
	for _, id := range ids {
		token := subjectToken(id)
		require.NotContains(t, token, ".")
		require.NotContains(t, token, "*")
		require.NotContains(t, token, ">")
		require.NotContains(t, token, " ")
		if prev, dup := seen[token]; dup {
			t.Fatalf("ids %q and %q share subject token %q", prev, id, token)
		}
		seen[token] = id
	}
	assert.Equal(t, "C4N64", subjectToken("a.b"))
	assert.Equal(t, "C5FM4", subjectToken("a_b"))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	minute := 88
	at := time.Date(2025, 8, 1, 16, 28, 0, 0, time.UTC)
	want := matchevent.Event{
		ID:            "e1",
		CompetitionID: "c1",
		MatchID:       "m1",
		Kind:          matchevent.KindCard,
		Side:          "away",
		Minute:        &minute,
		Player:        "Sabelo Ndzinisa",
		Detail:        "yellow",
		OccurredAt:    at,
	}

	data, err := encodeEnvelope(want)
	require.NoError(t, err)
	got, err := decodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, *want.Minute, *got.Minute)
	assert.True(t, want.OccurredAt.Equal(got.OccurredAt))
}
