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

// DashboardRepository defines the interface for dashboard data access.
// Dashboard membership lives in dashboard_items rows; ReplaceLayout swaps
// the full item set atomically.
type DashboardRepository interface {
	// Create inserts a new dashboard.
	Create(ctx context.Context, dashboard *models.Dashboard) error

	// GetByID retrieves a dashboard owned by userID, with items loaded.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Dashboard, error)

	// GetPublicByID retrieves a dashboard marked public, regardless of
	// owner, with items loaded.
	GetPublicByID(ctx context.Context, id uuid.UUID) (*models.Dashboard, error)

	// List retrieves all dashboards for a user without items, most
	// recently updated first.
	List(ctx context.Context, userID uuid.UUID) ([]*models.Dashboard, error)

	// Update modifies dashboard metadata owned by userID.
	Update(ctx context.Context, userID uuid.UUID, dashboard *models.Dashboard) error

	// Delete removes a dashboard owned by userID. Items are removed by
	// cascade.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// ReplaceLayout atomically replaces all items of a dashboard owned by
	// userID. Each item's visualization must belong to userID, or the whole
	// replacement fails with apperrors.ErrNotFound.
	ReplaceLayout(ctx context.Context, userID, dashboardID uuid.UUID, items []*models.DashboardItem) error
}

type dashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new dashboard repository.
func NewDashboardRepository(pool *pgxpool.Pool) DashboardRepository {
	return &dashboardRepository{pool: pool}
}

const dashboardColumns = "id, user_id, name, description, is_public, created_at, updated_at"

func scanDashboard(row pgx.Row) (*models.Dashboard, error) {
	var d models.Dashboard
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Description,
		&d.IsPublic,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *dashboardRepository) Create(ctx context.Context, dashboard *models.Dashboard) error {
	now := time.Now()
	dashboard.CreatedAt = now
	dashboard.UpdatedAt = now
	if dashboard.ID == uuid.Nil {
		dashboard.ID = uuid.New()
	}

	query := `
		INSERT INTO dashboards (id, user_id, name, description, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		dashboard.ID,
		dashboard.UserID,
		dashboard.Name,
		dashboard.Description,
		dashboard.IsPublic,
		dashboard.CreatedAt,
		dashboard.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create dashboard: %w", err)
	}

	return nil
}

func (r *dashboardRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Dashboard, error) {
	query := "SELECT " + dashboardColumns + " FROM dashboards WHERE user_id = $1 AND id = $2"

	dashboard, err := scanDashboard(r.pool.QueryRow(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}

	if err := r.loadItems(ctx, dashboard); err != nil {
		return nil, err
	}
	return dashboard, nil
}

func (r *dashboardRepository) GetPublicByID(ctx context.Context, id uuid.UUID) (*models.Dashboard, error) {
	query := "SELECT " + dashboardColumns + " FROM dashboards WHERE id = $1 AND is_public = true"

	dashboard, err := scanDashboard(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get public dashboard: %w", err)
	}

	if err := r.loadItems(ctx, dashboard); err != nil {
		return nil, err
	}
	return dashboard, nil
}

func (r *dashboardRepository) List(ctx context.Context, userID uuid.UUID) ([]*models.Dashboard, error) {
	query := "SELECT " + dashboardColumns + " FROM dashboards WHERE user_id = $1 ORDER BY updated_at DESC"

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	defer rows.Close()

	var dashboards []*models.Dashboard
	for rows.Next() {
		dashboard, err := scanDashboard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dashboard: %w", err)
		}
		dashboards = append(dashboards, dashboard)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dashboards: %w", err)
	}

	return dashboards, nil
}

func (r *dashboardRepository) Update(ctx context.Context, userID uuid.UUID, dashboard *models.Dashboard) error {
	dashboard.UpdatedAt = time.Now()

	query := `
		UPDATE dashboards
		SET name = $3, description = $4, is_public = $5, updated_at = $6
		WHERE user_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, query,
		userID,
		dashboard.ID,
		dashboard.Name,
		dashboard.Description,
		dashboard.IsPublic,
		dashboard.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update dashboard: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *dashboardRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM dashboards WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete dashboard: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *dashboardRepository) ReplaceLayout(ctx context.Context, userID, dashboardID uuid.UUID, items []*models.DashboardItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	// Lock the dashboard row and verify ownership in one step.
	var ownerID uuid.UUID
	err = tx.QueryRow(ctx, "SELECT user_id FROM dashboards WHERE id = $1 FOR UPDATE", dashboardID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock dashboard: %w", err)
	}
	if ownerID != userID {
		return apperrors.ErrNotFound
	}

	if _, err := tx.Exec(ctx, "DELETE FROM dashboard_items WHERE dashboard_id = $1", dashboardID); err != nil {
		return fmt.Errorf("failed to clear dashboard items: %w", err)
	}

	now := time.Now()
	for position, item := range items {
		item.DashboardID = dashboardID
		item.Position = position
		item.CreatedAt = now
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}

		// The join against queries keeps foreign visualizations out.
		query := `
			INSERT INTO dashboard_items (id, dashboard_id, visualization_id, position, grid_x, grid_y, grid_w, grid_h, created_at)
			SELECT $1, $2, v.id, $5, $6, $7, $8, $9, $10
			FROM visualizations v
			JOIN queries q ON q.id = v.query_id
			WHERE v.id = $3 AND q.user_id = $4`

		tag, err := tx.Exec(ctx, query,
			item.ID,
			dashboardID,
			item.VisualizationID,
			userID,
			item.Position,
			item.Cell.X,
			item.Cell.Y,
			item.Cell.W,
			item.Cell.H,
			item.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return apperrors.ErrConflict
			}
			return fmt.Errorf("failed to insert dashboard item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}
	}

	if _, err := tx.Exec(ctx, "UPDATE dashboards SET updated_at = $2 WHERE id = $1", dashboardID, now); err != nil {
		return fmt.Errorf("failed to touch dashboard: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// loadItems fills dashboard.Items with the item rows and their
// visualizations, ordered by position.
func (r *dashboardRepository) loadItems(ctx context.Context, dashboard *models.Dashboard) error {
	query := `
		SELECT i.id, i.dashboard_id, i.visualization_id, i.position,
		       i.grid_x, i.grid_y, i.grid_w, i.grid_h, i.created_at,
		       v.id, v.query_id, v.name, v.chart_type, v.config, v.created_at, v.updated_at,
		       q.id, q.name, q.connection_id
		FROM dashboard_items i
		JOIN visualizations v ON v.id = i.visualization_id
		JOIN queries q ON q.id = v.query_id
		WHERE i.dashboard_id = $1
		ORDER BY i.position`

	rows, err := r.pool.Query(ctx, query, dashboard.ID)
	if err != nil {
		return fmt.Errorf("failed to load dashboard items: %w", err)
	}
	defer rows.Close()

	dashboard.Items = []*models.DashboardItem{}
	for rows.Next() {
		var item models.DashboardItem
		var viz models.Visualization
		var querySummary models.QuerySummary
		err := rows.Scan(
			&item.ID,
			&item.DashboardID,
			&item.VisualizationID,
			&item.Position,
			&item.Cell.X,
			&item.Cell.Y,
			&item.Cell.W,
			&item.Cell.H,
			&item.CreatedAt,
			&viz.ID,
			&viz.QueryID,
			&viz.Name,
			&viz.ChartType,
			&viz.Config,
			&viz.CreatedAt,
			&viz.UpdatedAt,
			&querySummary.ID,
			&querySummary.Name,
			&querySummary.ConnectionID,
		)
		if err != nil {
			return fmt.Errorf("failed to scan dashboard item: %w", err)
		}
		item.Visualization = &viz
		item.Query = &querySummary
		dashboard.Items = append(dashboard.Items, &item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating dashboard items: %w", err)
	}

	return nil
}

var _ DashboardRepository = (*dashboardRepository)(nil)
