package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/competition-engine/internal/domain/competition"
	"github.com/riskibarqy/competition-engine/internal/domain/matchevent"
	"github.com/riskibarqy/competition-engine/internal/infrastructure/eventlog"
	"github.com/riskibarqy/competition-engine/internal/infrastructure/repository/memory"
	matcheventmock "github.com/riskibarqy/competition-engine/internal/mocks/domain/matchevent"
	"github.com/riskibarqy/competition-engine/internal/platform/logging"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const seededFixtureID = "swz-2025-05"

func newMatchService(repo competition.Repository, events matchevent.Log, clock clockwork.Clock) *MatchService {
	return NewMatchService(repo, events, &sequenceIDs{prefix: "evt"}, clock, competition.DefaultRules(), logging.NewNop())
}

func TestMatchService_LiveMatchToResult(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepository()
	events := eventlog.NewMemoryLog(0)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 9, 20, 15, 0, 0, 0, time.UTC))
	service := newMatchService(repo, events, clock)

	live, err := service.Transition(ctx, TransitionMatchInput{
		CompetitionID: memory.CompetitionIDPremierLeague,
		MatchID:       seededFixtureID,
		Status:        "in_play",
	})
	require.NoError(t, err)
	require.Equal(t, competition.StatusLive, live.Match.Status)
	require.True(t, live.EventLogged)

	clock.Advance(12 * time.Minute)
	goal, err := service.ReportGoal(ctx, ReportGoalInput{
		CompetitionID: memory.CompetitionIDPremierLeague,
		MatchID:       seededFixtureID,
		Side:          "home",
		Minute:        competition.IntPtr(12),
		Player:        "Sabelo Ndzinisa",
	})
	require.NoError(t, err)
	require.Equal(t, 1, *goal.Match.HomeScore)
	require.Equal(t, 0, *goal.Match.AwayScore)

	clock.Advance(80 * time.Minute)
	done, err := service.Transition(ctx, TransitionMatchInput{
		CompetitionID: memory.CompetitionIDPremierLeague,
		MatchID:       seededFixtureID,
		Status:        "FT",
	})
	require.NoError(t, err)
	require.Equal(t, competition.StatusCompleted, done.Match.Status)
	require.Equal(t, int64(4), done.Standings[0].TeamID)
	require.Equal(t, 7, done.Standings[0].Stats.Points)

	stored, _, err := repo.Get(ctx, memory.CompetitionIDPremierLeague)
	require.NoError(t, err)
	for _, m := range stored.Fixtures {
		require.NotEqual(t, seededFixtureID, m.ID, "completed match still listed as upcoming")
	}
	require.Equal(t, seededFixtureID, stored.Results[len(stored.Results)-1].ID)

	timeline, err := service.ListEvents(ctx, memory.CompetitionIDPremierLeague, seededFixtureID)
	require.NoError(t, err)
	require.Len(t, timeline, 3)
	require.Equal(t, matchevent.KindStatus, timeline[0].Kind)
	require.Equal(t, "scheduled -> live", timeline[0].Detail)
	require.Equal(t, matchevent.KindGoal, timeline[1].Kind)
	require.Equal(t, "1-0", timeline[1].Detail)
	require.Equal(t, "live -> completed", timeline[2].Detail)
}

func TestMatchService_CompletedMatchCannotGoLive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepository()
	events := eventlog.NewMemoryLog(0)
	service := newMatchService(repo, events, clockwork.NewFakeClock())

	before, _, err := repo.Get(ctx, memory.CompetitionIDPremierLeague)
	require.NoError(t, err)

	_, err = service.Transition(ctx, TransitionMatchInput{
		CompetitionID: memory.CompetitionIDPremierLeague,
		MatchID:       "swz-2025-01",
		Status:        "live",
	})
	if !errors.Is(err, competition.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	after, _, err := repo.Get(ctx, memory.CompetitionIDPremierLeague)
	require.NoError(t, err)
	require.Equal(t, before, after)

	logged, err := events.List(ctx, memory.CompetitionIDPremierLeague, "swz-2025-01")
	require.NoError(t, err)
	require.Empty(t, logged)
}

func TestMatchService_EventLogFailureDoesNotFailTransitionUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepository()
	events := matcheventmock.NewLog(t)
	service := newMatchService(repo, events, clockwork.NewFakeClock())

	events.
		On("Append", mock.Anything, mock.MatchedBy(func(e matchevent.Event) bool {
			return e.Kind == matchevent.KindStatus && e.MatchID == seededFixtureID && e.ID != ""
		})).
		Return(errors.New("nats: no responders available for request")).
		Once()

	got, err := service.Transition(ctx, TransitionMatchInput{
		CompetitionID: memory.CompetitionIDPremierLeague,
		MatchID:       seededFixtureID,
		Status:        "live",
	})
	require.NoError(t, err)
	require.False(t, got.EventLogged)

	stored, _, err := repo.Get(ctx, memory.CompetitionIDPremierLeague)
	require.NoError(t, err)
	match, ok := stored.FindMatch(seededFixtureID)
	require.True(t, ok)
	require.Equal(t, competition.StatusLive, match.Status)
}

func TestMatchService_Rejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service := newMatchService(newSeededRepository(), eventlog.NopLog{}, clockwork.NewFakeClock())

	_, err := service.Transition(ctx, TransitionMatchInput{CompetitionID: memory.CompetitionIDPremierLeague, MatchID: seededFixtureID, Status: "halftime"})
	require.ErrorIs(t, err, competition.ErrInvalidTransition)

	_, err = service.Transition(ctx, TransitionMatchInput{CompetitionID: memory.CompetitionIDPremierLeague, MatchID: "nope", Status: "live"})
	require.ErrorIs(t, err, competition.ErrMatchNotFound)

	_, err = service.Transition(ctx, TransitionMatchInput{CompetitionID: memory.CompetitionIDPremierLeague, MatchID: " "})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.ReportGoal(ctx, ReportGoalInput{CompetitionID: memory.CompetitionIDPremierLeague, MatchID: seededFixtureID, Side: "left"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.ReportGoal(ctx, ReportGoalInput{CompetitionID: memory.CompetitionIDPremierLeague, MatchID: seededFixtureID, Side: "home"})
	require.ErrorIs(t, err, competition.ErrInvalidTransition)

	_, err = service.RecordEvent(ctx, RecordEventInput{CompetitionID: memory.CompetitionIDPremierLeague, MatchID: "nope", Kind: "card"})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, competition.ErrMatchNotFound)

	_, err = service.RecordEvent(ctx, RecordEventInput{CompetitionID: memory.CompetitionIDPremierLeague, MatchID: seededFixtureID, Kind: "var-review"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestMatchService_RecordEventOnlyTouchesLog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepository()
	events := eventlog.NewMemoryLog(0)
	service := newMatchService(repo, events, clockwork.NewFakeClock())

	before, _, err := repo.Get(ctx, memory.CompetitionIDPremierLeague)
	require.NoError(t, err)

	event, err := service.RecordEvent(ctx, RecordEventInput{
		CompetitionID: memory.CompetitionIDPremierLeague,
		MatchID:       "swz-2025-03",
		Kind:          "CARD",
		Side:          "away",
		Minute:        competition.IntPtr(67),
		Player:        "Mxolisi Lukhele",
		Detail:        "yellow",
	})
	require.NoError(t, err)
	require.Equal(t, "evt-1", event.ID)
	require.Equal(t, matchevent.KindCard, event.Kind)

	after, _, err := repo.Get(ctx, memory.CompetitionIDPremierLeague)
	require.NoError(t, err)
	require.Equal(t, before.Version, after.Version)

	logged, err := service.ListEvents(ctx, memory.CompetitionIDPremierLeague, "swz-2025-03")
	require.NoError(t, err)
	require.Len(t, logged, 1)
}

func TestMatchService_ConcurrentGoalsAreSerialized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepository()
	service := newMatchService(repo, eventlog.NopLog{}, clockwork.NewFakeClock())

	_, err := service.Transition(ctx, TransitionMatchInput{CompetitionID: memory.CompetitionIDPremierLeague, MatchID: seededFixtureID, Status: "live"})
	require.NoError(t, err)

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		side := "home"
		if i%2 == 1 {
			side = "away"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.ReportGoal(ctx, ReportGoalInput{CompetitionID: memory.CompetitionIDPremierLeague, MatchID: seededFixtureID, Side: side})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, _, err := repo.Get(ctx, memory.CompetitionIDPremierLeague)
	require.NoError(t, err)
	match, _ := stored.FindMatch(seededFixtureID)
	require.Equal(t, writers/2, *match.HomeScore)
	require.Equal(t, writers/2, *match.AwayScore)
}
