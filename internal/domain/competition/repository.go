package competition

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/competition-engine/internal/platform/resilience"
)

// TxFunc computes the next aggregate from the current one. It may run more
// than once and must not have side effects outside its return values, except
// drawing team ids: an id drawn by a discarded attempt is skipped, never
// reused.
type TxFunc func(current Competition) (Competition, error)

// TeamIDSource draws a team id greater than after that no competition has
// been given before.
type TeamIDSource func(after int64) (int64, error)

// Repository is the transactional aggregate store.
type Repository interface {
	Create(ctx context.Context, c Competition) error
	Get(ctx context.Context, id string) (Competition, bool, error)
	List(ctx context.Context) ([]Competition, error)
	Transact(ctx context.Context, id string, fn TxFunc) (Competition, error)
	// NextTeamID allocates a team id above after from a counter shared by
	// every competition. Concurrent callers never receive the same id.
	NextTeamID(ctx context.Context, after int64) (int64, error)
}

// VersionedStore is the compare-and-swap primitive adapters build
// Transact on.
type VersionedStore interface {
	Load(ctx context.Context, id string) (Competition, error)
	CompareAndSwap(ctx context.Context, next Competition) error
}

// RunTransaction is the read-compute-commit loop shared by adapters. Only
// version conflicts are retried; once the budget is spent the caller gets
// ErrContention.
func RunTransaction(ctx context.Context, store VersionedStore, id string, fn TxFunc, rules Rules, retry resilience.RetryConfig) (Competition, error) {
	var committed Competition
	err := resilience.Retry(ctx, retry, isVersionConflict, func(ctx context.Context, _ int) error {
		current, err := store.Load(ctx, id)
		if err != nil {
			return err
		}
		if err := current.Validate(); err != nil {
			return err
		}
		current.Recompute(rules)

		next, err := fn(current.Clone())
		if err != nil {
			return err
		}
		next.ID = current.ID
		next.Version = current.Version
		if err := next.Validate(); err != nil {
			return err
		}

		if err := store.CompareAndSwap(ctx, next); err != nil {
			return err
		}
		next.Version++
		committed = next
		return nil
	})
	if err != nil {
		if errors.Is(err, resilience.ErrRetriesExhausted) && isVersionConflict(err) {
			return Competition{}, fmt.Errorf("%w: competition=%s: %v", ErrContention, id, err)
		}
		return Competition{}, err
	}

	return committed, nil
}

func isVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
