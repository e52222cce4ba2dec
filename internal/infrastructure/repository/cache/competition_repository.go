package cache

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/competition-engine/internal/domain/competition"
	basecache "github.com/riskibarqy/competition-engine/internal/platform/cache"
)

const (
	keyCompetitionList   = "competition:list"
	keyCompetitionPrefix = "competition:id:"
)

type cachedCompetition struct {
	value  competition.Competition
	exists bool
}

// CompetitionRepository is a read-through decorator. Every write through it
// drops the affected entries; writes that bypass it are visible after the
// TTL.
type CompetitionRepository struct {
	next  competition.Repository
	byID  *basecache.Store[cachedCompetition]
	lists *basecache.Store[[]competition.Competition]
}

func NewCompetitionRepository(next competition.Repository, ttl time.Duration, clock clockwork.Clock) *CompetitionRepository {
	return &CompetitionRepository{
		next:  next,
		byID:  basecache.NewStore[cachedCompetition](ttl, clock),
		lists: basecache.NewStore[[]competition.Competition](ttl, clock),
	}
}

func (r *CompetitionRepository) Create(ctx context.Context, c competition.Competition) error {
	if err := r.next.Create(ctx, c); err != nil {
		return err
	}
	r.invalidate(ctx, c.ID)
	return nil
}

func (r *CompetitionRepository) Get(ctx context.Context, id string) (competition.Competition, bool, error) {
	cached, err := r.byID.GetOrLoad(ctx, keyCompetitionPrefix+id, func(ctx context.Context) (cachedCompetition, error) {
		item, exists, err := r.next.Get(ctx, id)
		if err != nil {
			return cachedCompetition{}, err
		}
		return cachedCompetition{value: item, exists: exists}, nil
	})
	if err != nil {
		return competition.Competition{}, false, err
	}

	return cached.value.Clone(), cached.exists, nil
}

func (r *CompetitionRepository) List(ctx context.Context) ([]competition.Competition, error) {
	items, err := r.lists.GetOrLoad(ctx, keyCompetitionList, r.next.List)
	if err != nil {
		return nil, err
	}

	out := make([]competition.Competition, 0, len(items))
	for _, c := range items {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (r *CompetitionRepository) Transact(ctx context.Context, id string, fn competition.TxFunc) (competition.Competition, error) {
	out, err := r.next.Transact(ctx, id, fn)
	// A failed commit may still have raced a successful one elsewhere.
	r.invalidate(ctx, id)
	return out, err
}

func (r *CompetitionRepository) NextTeamID(ctx context.Context, after int64) (int64, error) {
	return r.next.NextTeamID(ctx, after)
}

func (r *CompetitionRepository) invalidate(ctx context.Context, id string) {
	r.byID.Delete(ctx, keyCompetitionPrefix+id)
	r.lists.Delete(ctx, keyCompetitionList)
}
