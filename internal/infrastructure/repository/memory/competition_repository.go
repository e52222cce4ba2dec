package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/riskibarqy/competition-engine/internal/domain/competition"
	"github.com/riskibarqy/competition-engine/internal/platform/resilience"
)

// CompetitionRepository keeps versioned competition documents in process.
// Transactions follow the same optimistic protocol as the postgres store.
type CompetitionRepository struct {
	mu     sync.RWMutex
	items  map[string]competition.Competition
	orders []string

	// lastTeamID is the id counter shared by every competition.
	lastTeamID atomic.Int64

	rules competition.Rules
	retry resilience.RetryConfig
}

func NewCompetitionRepository(seed []competition.Competition, rules competition.Rules, retry resilience.RetryConfig) *CompetitionRepository {
	r := &CompetitionRepository{
		items:  make(map[string]competition.Competition, len(seed)),
		orders: make([]string, 0, len(seed)),
		rules:  rules,
		retry:  retry,
	}
	for _, c := range seed {
		if _, exists := r.items[c.ID]; exists {
			continue
		}
		r.items[c.ID] = c.Clone()
		r.orders = append(r.orders, c.ID)
		r.raiseTeamID(c.MaxTeamID())
	}
	return r
}

func (r *CompetitionRepository) Create(_ context.Context, c competition.Competition) error {
	c.ID = strings.TrimSpace(c.ID)
	if err := c.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[c.ID]; exists {
		return fmt.Errorf("%w: competition=%s", competition.ErrCompetitionExists, c.ID)
	}
	c.Version = 1
	c.Recompute(r.rules)
	r.items[c.ID] = c.Clone()
	r.orders = append(r.orders, c.ID)
	r.raiseTeamID(c.MaxTeamID())

	return nil
}

func (r *CompetitionRepository) Get(_ context.Context, id string) (competition.Competition, bool, error) {
	r.mu.RLock()
	c, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return competition.Competition{}, false, nil
	}

	out := c.Clone()
	out.Recompute(r.rules)
	return out, true, nil
}

func (r *CompetitionRepository) List(_ context.Context) ([]competition.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]competition.Competition, 0, len(r.orders))
	for _, id := range r.orders {
		c := r.items[id].Clone()
		c.Recompute(r.rules)
		out = append(out, c)
	}
	return out, nil
}

func (r *CompetitionRepository) Transact(ctx context.Context, id string, fn competition.TxFunc) (competition.Competition, error) {
	return competition.RunTransaction(ctx, r, id, fn, r.rules, r.retry)
}

func (r *CompetitionRepository) NextTeamID(_ context.Context, after int64) (int64, error) {
	for {
		last := r.lastTeamID.Load()
		next := max(last, after) + 1
		if r.lastTeamID.CompareAndSwap(last, next) {
			return next, nil
		}
	}
}

// raiseTeamID keeps the counter at or above ids that arrived with a document.
func (r *CompetitionRepository) raiseTeamID(id int64) {
	for {
		last := r.lastTeamID.Load()
		if id <= last || r.lastTeamID.CompareAndSwap(last, id) {
			return
		}
	}
}

func (r *CompetitionRepository) Load(_ context.Context, id string) (competition.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok {
		return competition.Competition{}, fmt.Errorf("%w: competition=%s", competition.ErrCompetitionNotFound, id)
	}
	return c.Clone(), nil
}

func (r *CompetitionRepository) CompareAndSwap(_ context.Context, next competition.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[next.ID]
	if !ok {
		return fmt.Errorf("%w: competition=%s", competition.ErrCompetitionNotFound, next.ID)
	}
	if current.Version != next.Version {
		return fmt.Errorf("%w: competition=%s expected=%d actual=%d", competition.ErrVersionConflict, next.ID, next.Version, current.Version)
	}

	stored := next.Clone()
	stored.Version++
	r.items[next.ID] = stored
	return nil
}
