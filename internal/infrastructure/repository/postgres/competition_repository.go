package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/competition-engine/internal/domain/competition"
	"github.com/riskibarqy/competition-engine/internal/platform/logging"
	qb "github.com/riskibarqy/competition-engine/internal/platform/querybuilder"
	"github.com/riskibarqy/competition-engine/internal/platform/resilience"
	"github.com/riskibarqy/competition-engine/internal/usecase"
)

const competitionsTable = "competitions"

// nextTeamIDQuery bumps the single counter row. The row lock serializes
// concurrent allocations across competitions.
const nextTeamIDQuery = `UPDATE team_id_counter SET value = GREATEST(value, $1) + 1 WHERE id = 1 RETURNING value`

type Config struct {
	Rules          competition.Rules
	TxRetry        resilience.RetryConfig
	TransportRetry resilience.RetryConfig
	Breaker        *resilience.CircuitBreaker
	Logger         *logging.Logger
}

// CompetitionRepository stores one JSONB document per competition and runs
// optimistic transactions on its version column.
type CompetitionRepository struct {
	db             *sqlx.DB
	rules          competition.Rules
	txRetry        resilience.RetryConfig
	transportRetry resilience.RetryConfig
	breaker        *resilience.CircuitBreaker
	logger         *logging.Logger
}

func NewCompetitionRepository(db *sqlx.DB, cfg Config) *CompetitionRepository {
	if cfg.Breaker == nil {
		cfg.Breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Enabled: false}, nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &CompetitionRepository{
		db:             db,
		rules:          cfg.Rules,
		txRetry:        cfg.TxRetry,
		transportRetry: cfg.TransportRetry,
		breaker:        cfg.Breaker,
		logger:         cfg.Logger,
	}
}

func (r *CompetitionRepository) Create(ctx context.Context, c competition.Competition) error {
	c.ID = strings.TrimSpace(c.ID)
	if err := c.Validate(); err != nil {
		return err
	}
	c.Recompute(r.rules)

	doc, err := encodeDocument(c)
	if err != nil {
		return crerr.Wrap(err, "encode competition document")
	}
	query, args, err := qb.InsertModel(competitionsTable, competitionInsertModel{
		PublicID: c.ID,
		Name:     c.Name,
		Document: doc,
		Version:  1,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert competition query: %w", err)
	}

	err = r.call(ctx, "insert competition", func(ctx context.Context) error {
		_, execErr := r.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: competition=%s", competition.ErrCompetitionExists, c.ID)
		}
		return err
	}

	return nil
}

func (r *CompetitionRepository) Get(ctx context.Context, id string) (competition.Competition, bool, error) {
	c, err := r.Load(ctx, id)
	if err != nil {
		if errors.Is(err, competition.ErrCompetitionNotFound) {
			return competition.Competition{}, false, nil
		}
		return competition.Competition{}, false, err
	}
	c.Recompute(r.rules)
	return c, true, nil
}

func (r *CompetitionRepository) List(ctx context.Context) ([]competition.Competition, error) {
	query, args, err := qb.Select("*").From(competitionsTable).
		Where(qb.IsNull("deleted_at")).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select competitions query: %w", err)
	}

	var rows []competitionTableModel
	err = r.call(ctx, "select competitions", func(ctx context.Context) error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, err
	}

	out := make([]competition.Competition, 0, len(rows))
	for _, row := range rows {
		c, err := decodeDocument(row)
		if err != nil {
			return nil, fmt.Errorf("%w: competition=%s: %v", competition.ErrMalformedAggregate, row.PublicID, err)
		}
		c.Recompute(r.rules)
		out = append(out, c)
	}

	return out, nil
}

func (r *CompetitionRepository) Transact(ctx context.Context, id string, fn competition.TxFunc) (competition.Competition, error) {
	return competition.RunTransaction(ctx, r, id, fn, r.rules, r.txRetry)
}

// NextTeamID runs outside the competition's own transaction, so ids drawn by
// an attempt that later loses its compare-and-swap are skipped, never reused.
// A retried bump after a lost ack only leaves a gap.
func (r *CompetitionRepository) NextTeamID(ctx context.Context, after int64) (int64, error) {
	var out int64
	err := r.call(ctx, "allocate team id", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &out, nextTeamIDQuery, after)
	})
	if err != nil {
		if isNotFound(err) {
			return 0, crerr.Wrap(err, "team id counter row is missing; run migrations")
		}
		return 0, err
	}
	return out, nil
}

func (r *CompetitionRepository) Load(ctx context.Context, id string) (competition.Competition, error) {
	query, args, err := qb.Select("*").From(competitionsTable).
		Where(
			qb.Eq("public_id", id),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return competition.Competition{}, fmt.Errorf("build get competition query: %w", err)
	}

	var row competitionTableModel
	err = r.call(ctx, "get competition", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &row, query, args...)
	})
	if err != nil {
		if isNotFound(err) {
			return competition.Competition{}, fmt.Errorf("%w: competition=%s", competition.ErrCompetitionNotFound, id)
		}
		return competition.Competition{}, err
	}

	c, err := decodeDocument(row)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("%w: competition=%s: %v", competition.ErrMalformedAggregate, id, err)
	}
	return c, nil
}

// CompareAndSwap writes next if the stored version still matches. The UPDATE
// is sent once: after a lost acknowledgement a resend would find the bumped
// version, report a conflict and let the transaction apply its change twice.
// The commit token written with the row tells whether the lost write landed.
func (r *CompetitionRepository) CompareAndSwap(ctx context.Context, next competition.Competition) error {
	doc, err := encodeDocument(next)
	if err != nil {
		return crerr.Wrap(err, "encode competition document")
	}

	token := uuid.NewString()
	query, args, err := qb.Update(competitionsTable).
		Set("name", next.Name).
		Set("document", doc).
		Set("commit_token", token).
		SetExpr("version", "version + 1").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", next.ID),
			qb.Eq("version", next.Version),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update competition query: %w", err)
	}

	var affected int64
	err = r.callOnce(ctx, "update competition", func(ctx context.Context) error {
		res, execErr := r.db.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return settleCommit(ctx, err, func(ctx context.Context) (bool, error) {
			landed, checkErr := r.commitLanded(ctx, next.ID, token)
			if landed {
				r.logger.WarnContext(ctx, "postgres update acknowledgement lost; commit token found", "competition_id", next.ID, "version", next.Version+1)
			}
			return landed, checkErr
		})
	}
	if affected == 0 {
		if _, loadErr := r.Load(ctx, next.ID); loadErr != nil {
			return loadErr
		}
		return fmt.Errorf("%w: competition=%s expected=%d", competition.ErrVersionConflict, next.ID, next.Version)
	}

	return nil
}

// commitLanded reports whether the stored row carries token.
func (r *CompetitionRepository) commitLanded(ctx context.Context, id, token string) (bool, error) {
	query, args, err := qb.Select("commit_token").From(competitionsTable).
		Where(
			qb.Eq("public_id", id),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build commit token query: %w", err)
	}

	var stored sql.NullString
	err = r.call(ctx, "get commit token", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &stored, query, args...)
	})
	if err != nil {
		return false, err
	}
	return stored.Valid && stored.String == token, nil
}

// settleCommit resolves a single-shot write whose outcome is unknown. Only a
// dependency failure is ambiguous; when the check cannot prove the write
// landed the original error stands.
func settleCommit(ctx context.Context, err error, landed func(context.Context) (bool, error)) error {
	if err == nil || !errors.Is(err, usecase.ErrDependencyUnavailable) {
		return err
	}
	ok, checkErr := landed(ctx)
	if checkErr != nil || !ok {
		return err
	}
	return nil
}

// call runs one idempotent statement behind the breaker, retrying transport
// failures.
func (r *CompetitionRepository) call(ctx context.Context, op string, fn func(context.Context) error) error {
	return r.run(ctx, op, r.transportRetry, fn)
}

// callOnce is call without the transport retry, for statements that must not
// be resent.
func (r *CompetitionRepository) callOnce(ctx context.Context, op string, fn func(context.Context) error) error {
	return r.run(ctx, op, resilience.RetryConfig{MaxAttempts: 1}, fn)
}

// run executes fn under the breaker. Anything still transient afterwards
// surfaces as ErrDependencyUnavailable.
func (r *CompetitionRepository) run(ctx context.Context, op string, retry resilience.RetryConfig, fn func(context.Context) error) error {
	err := resilience.Retry(ctx, retry, isTransient, func(ctx context.Context, attempt int) error {
		err := r.breaker.Execute(ctx, isTransient, fn)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			r.logger.WarnContext(ctx, "postgres circuit breaker rejected query", "op", op, "state", r.breaker.State())
			return fmt.Errorf("%w: %w", errPostgresTransient, err)
		}
		if err != nil && isTransient(err) {
			r.logger.WarnContext(ctx, "postgres query failed", "op", op, "attempt", attempt, "error", err)
		}
		return err
	})
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return err
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %s: %v", usecase.ErrDependencyUnavailable, op, err)
	}
	return crerr.Wrap(err, op)
}

// isNotFound reports sql.ErrNoRows through any wrapping.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
