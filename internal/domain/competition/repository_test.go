package competition

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/competition-engine/internal/platform/resilience"
)

type fakeStore struct {
	doc       Competition
	conflicts int
	loads     int
	swaps     int
}

func (s *fakeStore) Load(_ context.Context, id string) (Competition, error) {
	s.loads++
	if id != s.doc.ID {
		return Competition{}, ErrCompetitionNotFound
	}
	return s.doc.Clone(), nil
}

func (s *fakeStore) CompareAndSwap(_ context.Context, next Competition) error {
	if s.conflicts > 0 {
		s.conflicts--
		return ErrVersionConflict
	}
	if next.Version != s.doc.Version {
		return ErrVersionConflict
	}
	s.swaps++
	s.doc = next.Clone()
	s.doc.Version++
	return nil
}

func noBackoff(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: attempts}
}

func TestRunTransaction_CommitsAndBumpsVersion(t *testing.T) {
	store := &fakeStore{doc: liveLeague()}

	got, err := RunTransaction(context.Background(), store, "league-2025", func(c Competition) (Competition, error) {
		_, err := c.Transition("m1", TransitionInput{Status: StatusCompleted, HomeScore: IntPtr(2), AwayScore: IntPtr(2)}, DefaultRules())
		return c, err
	}, DefaultRules(), noBackoff(3))
	if err != nil {
		t.Fatalf("transact: %v", err)
	}
	if got.Version != 1 || store.doc.Version != 1 {
		t.Fatalf("unexpected versions returned=%d stored=%d", got.Version, store.doc.Version)
	}
	if len(store.doc.Results) != 1 {
		t.Fatalf("commit not persisted: %+v", store.doc.Results)
	}
}

func TestRunTransaction_RetriesVersionConflicts(t *testing.T) {
	store := &fakeStore{doc: liveLeague(), conflicts: 2}
	calls := 0

	_, err := RunTransaction(context.Background(), store, "league-2025", func(c Competition) (Competition, error) {
		calls++
		return c, nil
	}, DefaultRules(), noBackoff(5))
	if err != nil {
		t.Fatalf("transact: %v", err)
	}
	if calls != 3 || store.loads != 3 {
		t.Fatalf("expected 3 full cycles, got fn=%d loads=%d", calls, store.loads)
	}
}

func TestRunTransaction_ContentionAfterBudget(t *testing.T) {
	store := &fakeStore{doc: liveLeague(), conflicts: 10}

	_, err := RunTransaction(context.Background(), store, "league-2025", func(c Competition) (Competition, error) {
		return c, nil
	}, DefaultRules(), noBackoff(3))
	if !errors.Is(err, ErrContention) {
		t.Fatalf("expected ErrContention, got %v", err)
	}
	if store.swaps != 0 {
		t.Fatalf("unexpected commit")
	}
}

func TestRunTransaction_FunctionErrorAbortsWithoutRetry(t *testing.T) {
	store := &fakeStore{doc: liveLeague()}
	calls := 0

	_, err := RunTransaction(context.Background(), store, "league-2025", func(c Competition) (Competition, error) {
		calls++
		_, err := c.Transition("m2", TransitionInput{Status: StatusCompleted}, DefaultRules())
		return c, err
	}, DefaultRules(), noBackoff(5))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if calls != 1 || store.swaps != 0 {
		t.Fatalf("expected a single aborted attempt, got calls=%d swaps=%d", calls, store.swaps)
	}
}

func TestRunTransaction_RejectsMalformedDocuments(t *testing.T) {
	doc := liveLeague()
	doc.Fixtures[1].ID = "m1"
	store := &fakeStore{doc: doc}

	_, err := RunTransaction(context.Background(), store, "league-2025", func(c Competition) (Competition, error) {
		t.Fatalf("fn must not run on a malformed aggregate")
		return c, nil
	}, DefaultRules(), noBackoff(3))
	if !errors.Is(err, ErrMalformedAggregate) {
		t.Fatalf("expected ErrMalformedAggregate, got %v", err)
	}
}

func TestRunTransaction_MissingCompetition(t *testing.T) {
	store := &fakeStore{doc: liveLeague()}

	_, err := RunTransaction(context.Background(), store, "other", func(c Competition) (Competition, error) {
		return c, nil
	}, DefaultRules(), noBackoff(3))
	if !errors.Is(err, ErrCompetitionNotFound) {
		t.Fatalf("expected ErrCompetitionNotFound, got %v", err)
	}
}
