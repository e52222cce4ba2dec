package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/competition-engine/internal/domain/competition"
	"github.com/riskibarqy/competition-engine/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/competition-engine/internal/platform/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepository struct {
	*memory.CompetitionRepository
	gets  int
	lists int
}

func (r *countingRepository) Get(ctx context.Context, id string) (competition.Competition, bool, error) {
	r.gets++
	return r.CompetitionRepository.Get(ctx, id)
}

func (r *countingRepository) List(ctx context.Context) ([]competition.Competition, error) {
	r.lists++
	return r.CompetitionRepository.List(ctx)
}

func newCounting() *countingRepository {
	return &countingRepository{
		CompetitionRepository: memory.NewCompetitionRepository(memory.SeedCompetitions(), competition.DefaultRules(), resilience.DefaultRetryConfig()),
	}
}

func TestCompetitionRepository_GetIsCachedUntilTransact(t *testing.T) {
	ctx := context.Background()
	next := newCounting()
	repo := NewCompetitionRepository(next, time.Minute, clockwork.NewFakeClock())

	for i := 0; i < 3; i++ {
		_, ok, err := repo.Get(ctx, memory.CompetitionIDPremierLeague)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 1, next.gets)

	_, err := repo.Transact(ctx, memory.CompetitionIDPremierLeague, func(c competition.Competition) (competition.Competition, error) {
		c.Name = "Renamed"
		return c, nil
	})
	require.NoError(t, err)

	got, _, err := repo.Get(ctx, memory.CompetitionIDPremierLeague)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, 2, next.gets)
}

func TestCompetitionRepository_ReturnsClones(t *testing.T) {
	ctx := context.Background()
	repo := NewCompetitionRepository(newCounting(), time.Minute, clockwork.NewFakeClock())

	first, _, err := repo.Get(ctx, memory.CompetitionIDPremierLeague)
	require.NoError(t, err)
	first.Teams[0].Name = "mutated"

	second, _, err := repo.Get(ctx, memory.CompetitionIDPremierLeague)
	require.NoError(t, err)
	assert.Equal(t, "Mbabane Highlanders", second.Teams[0].Name)
}

func TestCompetitionRepository_ListExpiresAndInvalidatesOnCreate(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	next := newCounting()
	repo := NewCompetitionRepository(next, time.Minute, clock)

	_, err := repo.List(ctx)
	require.NoError(t, err)
	_, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next.lists)

	clock.Advance(2 * time.Minute)
	_, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next.lists)

	require.NoError(t, repo.Create(ctx, competition.Competition{ID: "cup-2025", Name: "Cup"}))
	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 3, next.lists)
}
