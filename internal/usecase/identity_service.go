package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/competition-engine/internal/domain/competition"
	"github.com/sourcegraph/conc/iter"
)

const (
	recomputeStatusSuccess = "success"
	recomputeStatusFailed  = "failed"

	defaultIdentityWorkers = 4
)

type AdoptInput struct {
	CompetitionID string
	// Names to adopt. Empty adopts every ghost present at commit time.
	Names []string
}

type RenameGhostInput struct {
	CompetitionID string
	GhostName     string
	TargetTeamID  int64
}

type RenameGhostResult struct {
	Team           competition.Team
	RewrittenSides int
}

type MergeTeamsInput struct {
	CompetitionID string
	PrimaryID     int64
	SecondaryID   int64
	Confirmed     bool
}

type DedupResult struct {
	Dropped []competition.Match
	Kept    int
}

type RecomputeAllResult struct {
	CompetitionCount int                  `json:"competition_count"`
	SuccessCount     int                  `json:"success_count"`
	FailedCount      int                  `json:"failed_count"`
	WorkerCount      int                  `json:"worker_count"`
	Items            []RecomputeItemResult `json:"items"`
}

type RecomputeItemResult struct {
	CompetitionID string `json:"competition_id"`
	Status        string `json:"status"`
	Teams         int    `json:"teams"`
	DurationMs    int64  `json:"duration_ms"`
	Message       string `json:"message,omitempty"`
}

type IdentityService struct {
	repo    competition.Repository
	rules   competition.Rules
	clock   clockwork.Clock
	workers int
}

func NewIdentityService(repo competition.Repository, rules competition.Rules, clock clockwork.Clock, workers int) *IdentityService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if workers <= 0 {
		workers = defaultIdentityWorkers
	}
	return &IdentityService{
		repo:    repo,
		rules:   rules,
		clock:   clock,
		workers: workers,
	}
}

func (s *IdentityService) Ghosts(ctx context.Context, competitionID string) ([]competition.Ghost, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.Ghosts")
	defer span.End()

	item, err := s.load(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return competition.FindGhosts(item.Teams, item.AllMatches(), s.rules), nil
}

func (s *IdentityService) Zombies(ctx context.Context, competitionID string) ([]competition.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.Zombies")
	defer span.End()

	item, err := s.load(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return competition.FindZombies(item.Teams, item.AllMatches(), s.rules), nil
}

func (s *IdentityService) Audit(ctx context.Context, competitionID string) (competition.AuditReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.Audit")
	defer span.End()

	item, err := s.load(ctx, competitionID)
	if err != nil {
		return competition.AuditReport{}, err
	}
	return competition.Audit(item, s.rules), nil
}

// AuditAll audits every competition. Reports keep the repository's order.
func (s *IdentityService) AuditAll(ctx context.Context) ([]competition.AuditReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.AuditAll")
	defer span.End()

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}

	mapper := iter.Mapper[competition.Competition, competition.AuditReport]{MaxGoroutines: s.workers}
	return mapper.Map(items, func(item *competition.Competition) competition.AuditReport {
		return competition.Audit(*item, s.rules)
	}), nil
}

func (s *IdentityService) Adopt(ctx context.Context, input AdoptInput) ([]competition.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.Adopt")
	defer span.End()

	competitionID, err := requireCompetitionID(input.CompetitionID)
	if err != nil {
		return nil, err
	}

	ids := teamIDSource(ctx, s.repo)
	var adopted []competition.Team
	_, err = s.repo.Transact(ctx, competitionID, func(current competition.Competition) (competition.Competition, error) {
		names := input.Names
		if len(names) == 0 {
			for _, g := range competition.FindGhosts(current.Teams, current.AllMatches(), s.rules) {
				names = append(names, g.Name)
			}
		}
		var err error
		adopted, err = current.Adopt(names, ids, s.rules)
		if err != nil {
			return competition.Competition{}, err
		}
		return current, nil
	})
	if err != nil {
		return nil, fmt.Errorf("adopt ghosts: %w", err)
	}

	return adopted, nil
}

func (s *IdentityService) Rename(ctx context.Context, input RenameGhostInput) (RenameGhostResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.Rename")
	defer span.End()

	competitionID, err := requireCompetitionID(input.CompetitionID)
	if err != nil {
		return RenameGhostResult{}, err
	}
	if strings.TrimSpace(input.GhostName) == "" {
		return RenameGhostResult{}, fmt.Errorf("%w: ghost name is required", ErrInvalidInput)
	}
	if input.TargetTeamID <= 0 {
		return RenameGhostResult{}, fmt.Errorf("%w: target team id is required", ErrInvalidInput)
	}

	var result RenameGhostResult
	_, err = s.repo.Transact(ctx, competitionID, func(current competition.Competition) (competition.Competition, error) {
		rewritten, err := current.RenameGhost(input.GhostName, input.TargetTeamID, s.rules)
		if err != nil {
			return competition.Competition{}, err
		}
		team, _ := current.TeamByID(input.TargetTeamID)
		result = RenameGhostResult{Team: team, RewrittenSides: rewritten}
		return current, nil
	})
	if err != nil {
		return RenameGhostResult{}, fmt.Errorf("rename ghost: %w", err)
	}

	return result, nil
}

// Merge is destructive; callers must confirm it explicitly.
func (s *IdentityService) Merge(ctx context.Context, input MergeTeamsInput) (competition.MergeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.Merge")
	defer span.End()

	competitionID, err := requireCompetitionID(input.CompetitionID)
	if err != nil {
		return competition.MergeResult{}, err
	}
	if !input.Confirmed {
		return competition.MergeResult{}, fmt.Errorf("%w: merge must be confirmed", ErrInvalidInput)
	}
	if input.PrimaryID <= 0 || input.SecondaryID <= 0 {
		return competition.MergeResult{}, fmt.Errorf("%w: primary and secondary team ids are required", ErrInvalidInput)
	}
	if input.PrimaryID == input.SecondaryID {
		return competition.MergeResult{}, fmt.Errorf("%w: cannot merge team %d into itself", ErrInvalidInput, input.PrimaryID)
	}

	var result competition.MergeResult
	_, err = s.repo.Transact(ctx, competitionID, func(current competition.Competition) (competition.Competition, error) {
		merged, err := current.Merge(input.PrimaryID, input.SecondaryID, s.rules)
		if err != nil {
			return competition.Competition{}, err
		}
		result = merged
		return current, nil
	})
	if err != nil {
		return competition.MergeResult{}, fmt.Errorf("merge teams: %w", err)
	}

	return result, nil
}

func (s *IdentityService) Dedup(ctx context.Context, competitionID string) (DedupResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.Dedup")
	defer span.End()

	competitionID, err := requireCompetitionID(competitionID)
	if err != nil {
		return DedupResult{}, err
	}

	var dropped []competition.Match
	committed, err := s.repo.Transact(ctx, competitionID, func(current competition.Competition) (competition.Competition, error) {
		dropped = current.Dedup(s.rules)
		return current, nil
	})
	if err != nil {
		return DedupResult{}, fmt.Errorf("dedup matches: %w", err)
	}

	return DedupResult{
		Dropped: dropped,
		Kept:    len(committed.Fixtures) + len(committed.Results),
	}, nil
}

// Recompute rewrites the persisted stats from the match history.
func (s *IdentityService) Recompute(ctx context.Context, competitionID string) ([]competition.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.Recompute")
	defer span.End()

	competitionID, err := requireCompetitionID(competitionID)
	if err != nil {
		return nil, err
	}

	committed, err := s.repo.Transact(ctx, competitionID, func(current competition.Competition) (competition.Competition, error) {
		current.Recompute(s.rules)
		return current, nil
	})
	if err != nil {
		return nil, fmt.Errorf("recompute standings: %w", err)
	}

	return competition.Rank(committed.Teams), nil
}

// RecomputeAll recomputes every competition in its own transaction. A failed
// competition is reported and does not stop the batch.
func (s *IdentityService) RecomputeAll(ctx context.Context) (RecomputeAllResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityService.RecomputeAll")
	defer span.End()

	items, err := s.repo.List(ctx)
	if err != nil {
		return RecomputeAllResult{}, fmt.Errorf("list competitions: %w", err)
	}

	workerCount := min(s.workers, len(items))
	result := RecomputeAllResult{
		CompetitionCount: len(items),
		WorkerCount:      workerCount,
		Items:            make([]RecomputeItemResult, 0, len(items)),
	}
	if len(items) == 0 {
		return result, nil
	}

	results := make(chan RecomputeItemResult, len(items))
	var successCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RecomputeAllResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, item := range items {
		competitionID := item.ID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := s.clock.Now()
			row := RecomputeItemResult{CompetitionID: competitionID, Status: recomputeStatusSuccess}
			standings, err := s.Recompute(ctx, competitionID)
			if err != nil {
				row.Status = recomputeStatusFailed
				row.Message = err.Error()
				failedCount.Add(1)
			} else {
				row.Teams = len(standings)
				successCount.Add(1)
			}
			row.DurationMs = s.clock.Since(start).Milliseconds()

			results <- row
		}); err != nil {
			workers.Done()
			return RecomputeAllResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Items = append(result.Items, row)
	}
	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].CompetitionID < result.Items[j].CompetitionID
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	return result, nil
}

func (s *IdentityService) load(ctx context.Context, competitionID string) (competition.Competition, error) {
	competitionID, err := requireCompetitionID(competitionID)
	if err != nil {
		return competition.Competition{}, err
	}

	item, exists, err := s.repo.Get(ctx, competitionID)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition: %w", err)
	}
	if !exists {
		return competition.Competition{}, fmt.Errorf("%w: %w: competition=%s", ErrNotFound, competition.ErrCompetitionNotFound, competitionID)
	}
	return item, nil
}
