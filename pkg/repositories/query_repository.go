package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
	"github.com/vizly-bi/vizly-engine/pkg/models"
)

// QueryRepository defines the interface for saved query data access.
type QueryRepository interface {
	// Create inserts a new saved query. The referenced connection must
	// belong to the same user; the caller verifies that.
	Create(ctx context.Context, query *models.Query) error

	// GetByID retrieves a query owned by userID.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Query, error)

	// List retrieves all queries for a user, most recently updated first.
	List(ctx context.Context, userID uuid.UUID) ([]*models.Query, error)

	// Update modifies an existing query owned by userID.
	Update(ctx context.Context, userID uuid.UUID, query *models.Query) error

	// Delete removes a query owned by userID. Visualizations built on it
	// are removed by cascade.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type queryRepository struct {
	pool *pgxpool.Pool
}

// NewQueryRepository creates a new query repository.
func NewQueryRepository(pool *pgxpool.Pool) QueryRepository {
	return &queryRepository{pool: pool}
}

const queryColumns = "id, user_id, connection_id, name, description, sql_text, created_at, updated_at"

func scanQuery(row pgx.Row) (*models.Query, error) {
	var q models.Query
	err := row.Scan(
		&q.ID,
		&q.UserID,
		&q.ConnectionID,
		&q.Name,
		&q.Description,
		&q.SQLText,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *queryRepository) Create(ctx context.Context, query *models.Query) error {
	now := time.Now()
	query.CreatedAt = now
	query.UpdatedAt = now
	if query.ID == uuid.Nil {
		query.ID = uuid.New()
	}

	sql := `
		INSERT INTO queries (id, user_id, connection_id, name, description, sql_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, sql,
		query.ID,
		query.UserID,
		query.ConnectionID,
		query.Name,
		query.Description,
		query.SQLText,
		query.CreatedAt,
		query.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return apperrors.ErrConflict
			case "23503":
				return apperrors.ErrNotFound
			}
		}
		return fmt.Errorf("failed to create query: %w", err)
	}

	return nil
}

func (r *queryRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Query, error) {
	sql := "SELECT " + queryColumns + " FROM queries WHERE user_id = $1 AND id = $2"

	q, err := scanQuery(r.pool.QueryRow(ctx, sql, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get query: %w", err)
	}
	return q, nil
}

func (r *queryRepository) List(ctx context.Context, userID uuid.UUID) ([]*models.Query, error) {
	sql := "SELECT " + queryColumns + " FROM queries WHERE user_id = $1 ORDER BY updated_at DESC"

	rows, err := r.pool.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer rows.Close()

	var queries []*models.Query
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queries: %w", err)
	}

	return queries, nil
}

func (r *queryRepository) Update(ctx context.Context, userID uuid.UUID, query *models.Query) error {
	query.UpdatedAt = time.Now()

	sql := `
		UPDATE queries
		SET connection_id = $3, name = $4, description = $5, sql_text = $6, updated_at = $7
		WHERE user_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, sql,
		userID,
		query.ID,
		query.ConnectionID,
		query.Name,
		query.Description,
		query.SQLText,
		query.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *queryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM queries WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

var _ QueryRepository = (*queryRepository)(nil)
