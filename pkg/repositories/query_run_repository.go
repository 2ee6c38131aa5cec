package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vizly-bi/vizly-engine/pkg/models"
)

// QueryRunRepository records query execution history. Failures to record a
// run never fail the execution itself; callers log and move on.
type QueryRunRepository interface {
	// Create inserts a run record.
	Create(ctx context.Context, run *models.QueryRun) error

	// ListByQuery retrieves the most recent runs of a query owned by
	// userID, newest first, capped at limit.
	ListByQuery(ctx context.Context, userID, queryID uuid.UUID, limit int) ([]*models.QueryRun, error)
}

type queryRunRepository struct {
	pool *pgxpool.Pool
}

// NewQueryRunRepository creates a new query run repository.
func NewQueryRunRepository(pool *pgxpool.Pool) QueryRunRepository {
	return &queryRunRepository{pool: pool}
}

func (r *queryRunRepository) Create(ctx context.Context, run *models.QueryRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO query_runs (id, query_id, user_id, status, error_message, row_count, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.QueryID,
		run.UserID,
		run.Status,
		run.ErrorMessage,
		run.RowCount,
		run.DurationMs,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record query run: %w", err)
	}

	return nil
}

func (r *queryRunRepository) ListByQuery(ctx context.Context, userID, queryID uuid.UUID, limit int) ([]*models.QueryRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT r.id, r.query_id, r.user_id, r.status, r.error_message, r.row_count, r.duration_ms, r.created_at
		FROM query_runs r
		JOIN queries q ON q.id = r.query_id
		WHERE q.user_id = $1 AND r.query_id = $2
		ORDER BY r.created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userID, queryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.QueryRun
	for rows.Next() {
		var run models.QueryRun
		err := rows.Scan(
			&run.ID,
			&run.QueryID,
			&run.UserID,
			&run.Status,
			&run.ErrorMessage,
			&run.RowCount,
			&run.DurationMs,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query run: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query runs: %w", err)
	}

	return runs, nil
}

var _ QueryRunRepository = (*queryRunRepository)(nil)
