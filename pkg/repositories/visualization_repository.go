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

// VisualizationRepository defines the interface for visualization data
// access. Visualizations have no owner column; ownership flows through the
// query they are built on, so every lookup joins against queries.
type VisualizationRepository interface {
	// Create inserts a new visualization. The query must belong to userID
	// or apperrors.ErrNotFound is returned.
	Create(ctx context.Context, userID uuid.UUID, viz *models.Visualization) error

	// GetByID retrieves a visualization whose query belongs to userID.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Visualization, error)

	// List retrieves all visualizations whose queries belong to userID,
	// most recently updated first.
	List(ctx context.Context, userID uuid.UUID) ([]*models.Visualization, error)

	// Update modifies a visualization whose query belongs to userID.
	Update(ctx context.Context, userID uuid.UUID, viz *models.Visualization) error

	// Delete removes a visualization whose query belongs to userID.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type visualizationRepository struct {
	pool *pgxpool.Pool
}

// NewVisualizationRepository creates a new visualization repository.
func NewVisualizationRepository(pool *pgxpool.Pool) VisualizationRepository {
	return &visualizationRepository{pool: pool}
}

func scanVisualization(row pgx.Row) (*models.Visualization, error) {
	var viz models.Visualization
	err := row.Scan(
		&viz.ID,
		&viz.QueryID,
		&viz.Name,
		&viz.ChartType,
		&viz.Config,
		&viz.CreatedAt,
		&viz.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &viz, nil
}

func (r *visualizationRepository) Create(ctx context.Context, userID uuid.UUID, viz *models.Visualization) error {
	now := time.Now()
	viz.CreatedAt = now
	viz.UpdatedAt = now
	if viz.ID == uuid.Nil {
		viz.ID = uuid.New()
	}

	// The subquery enforces ownership: inserting against someone else's
	// query inserts zero rows.
	query := `
		INSERT INTO visualizations (id, query_id, name, chart_type, config, created_at, updated_at)
		SELECT $1, q.id, $4, $5, $6, $7, $8
		FROM queries q
		WHERE q.id = $2 AND q.user_id = $3`

	tag, err := r.pool.Exec(ctx, query,
		viz.ID,
		viz.QueryID,
		userID,
		viz.Name,
		viz.ChartType,
		viz.Config,
		viz.CreatedAt,
		viz.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create visualization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *visualizationRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Visualization, error) {
	query := `
		SELECT v.id, v.query_id, v.name, v.chart_type, v.config, v.created_at, v.updated_at
		FROM visualizations v
		JOIN queries q ON q.id = v.query_id
		WHERE q.user_id = $1 AND v.id = $2`

	viz, err := scanVisualization(r.pool.QueryRow(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get visualization: %w", err)
	}
	return viz, nil
}

func (r *visualizationRepository) List(ctx context.Context, userID uuid.UUID) ([]*models.Visualization, error) {
	query := `
		SELECT v.id, v.query_id, v.name, v.chart_type, v.config, v.created_at, v.updated_at
		FROM visualizations v
		JOIN queries q ON q.id = v.query_id
		WHERE q.user_id = $1
		ORDER BY v.updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visualizations: %w", err)
	}
	defer rows.Close()

	var visualizations []*models.Visualization
	for rows.Next() {
		viz, err := scanVisualization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visualization: %w", err)
		}
		visualizations = append(visualizations, viz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visualizations: %w", err)
	}

	return visualizations, nil
}

func (r *visualizationRepository) Update(ctx context.Context, userID uuid.UUID, viz *models.Visualization) error {
	viz.UpdatedAt = time.Now()

	query := `
		UPDATE visualizations v
		SET name = $3, chart_type = $4, config = $5, updated_at = $6
		FROM queries q
		WHERE q.id = v.query_id AND q.user_id = $1 AND v.id = $2`

	tag, err := r.pool.Exec(ctx, query,
		userID,
		viz.ID,
		viz.Name,
		viz.ChartType,
		viz.Config,
		viz.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update visualization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *visualizationRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `
		DELETE FROM visualizations v
		USING queries q
		WHERE q.id = v.query_id AND q.user_id = $1 AND v.id = $2`

	tag, err := r.pool.Exec(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete visualization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

var _ VisualizationRepository = (*visualizationRepository)(nil)
