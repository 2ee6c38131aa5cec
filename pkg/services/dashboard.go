package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	"github.com/vizly-bi/vizly-engine/pkg/repositories"
)

// DashboardUpdate carries a partial update. Nil fields keep their stored
// values.
type DashboardUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

// DashboardService manages dashboards and their item layout.
type DashboardService interface {
	Create(ctx context.Context, userID uuid.UUID, dashboard *models.Dashboard) (*models.Dashboard, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Dashboard, error)

	// GetPublic retrieves a dashboard marked public without authentication.
	GetPublic(ctx context.Context, id uuid.UUID) (*models.Dashboard, error)

	List(ctx context.Context, userID uuid.UUID) ([]*models.Dashboard, error)
	Update(ctx context.Context, userID, id uuid.UUID, upd DashboardUpdate) (*models.Dashboard, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// ReplaceLayout atomically swaps the dashboard's item set. Items keep
	// the order given; a repeated visualization is a conflict.
	ReplaceLayout(ctx context.Context, userID, dashboardID uuid.UUID, items []*models.DashboardItem) (*models.Dashboard, error)
}

type dashboardService struct {
	dashboards repositories.DashboardRepository
	logger     *zap.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(dashboards repositories.DashboardRepository, logger *zap.Logger) DashboardService {
	return &dashboardService{
		dashboards: dashboards,
		logger:     logger,
	}
}

func (s *dashboardService) Create(ctx context.Context, userID uuid.UUID, dashboard *models.Dashboard) (*models.Dashboard, error) {
	if err := validateDashboard(dashboard); err != nil {
		return nil, err
	}

	dashboard.UserID = userID
	if err := s.dashboards.Create(ctx, dashboard); err != nil {
		return nil, err
	}

	dashboard.Items = []*models.DashboardItem{}
	return dashboard, nil
}

func (s *dashboardService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Dashboard, error) {
	return s.dashboards.GetByID(ctx, userID, id)
}

func (s *dashboardService) GetPublic(ctx context.Context, id uuid.UUID) (*models.Dashboard, error) {
	return s.dashboards.GetPublicByID(ctx, id)
}

func (s *dashboardService) List(ctx context.Context, userID uuid.UUID) ([]*models.Dashboard, error) {
	return s.dashboards.List(ctx, userID)
}

func (s *dashboardService) Update(ctx context.Context, userID, id uuid.UUID, upd DashboardUpdate) (*models.Dashboard, error) {
	dashboard, err := s.dashboards.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		dashboard.Name = *upd.Name
	}
	if upd.Description != nil {
		dashboard.Description = *upd.Description
	}
	if upd.IsPublic != nil {
		dashboard.IsPublic = *upd.IsPublic
	}

	if err := validateDashboard(dashboard); err != nil {
		return nil, err
	}

	if err := s.dashboards.Update(ctx, userID, dashboard); err != nil {
		return nil, err
	}

	return s.dashboards.GetByID(ctx, userID, id)
}

func (s *dashboardService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.dashboards.Delete(ctx, userID, id)
}

func (s *dashboardService) ReplaceLayout(ctx context.Context, userID, dashboardID uuid.UUID, items []*models.DashboardItem) (*models.Dashboard, error) {
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if item.VisualizationID == uuid.Nil {
			return nil, fmt.Errorf("%w: item missing visualization_id", apperrors.ErrValidation)
		}
		if seen[item.VisualizationID] {
			return nil, fmt.Errorf("%w: visualization %s appears twice", apperrors.ErrConflict, item.VisualizationID)
		}
		seen[item.VisualizationID] = true

		if item.Cell.W <= 0 || item.Cell.H <= 0 {
			return nil, fmt.Errorf("%w: item size must be positive", apperrors.ErrValidation)
		}
		if item.Cell.X < 0 || item.Cell.Y < 0 {
			return nil, fmt.Errorf("%w: item position must be non-negative", apperrors.ErrValidation)
		}
	}

	if err := s.dashboards.ReplaceLayout(ctx, userID, dashboardID, items); err != nil {
		return nil, err
	}

	s.logger.Debug("dashboard layout replaced",
		zap.String("dashboard_id", dashboardID.String()),
		zap.Int("items", len(items)))

	return s.dashboards.GetByID(ctx, userID, dashboardID)
}

func validateDashboard(dashboard *models.Dashboard) error {
	if strings.TrimSpace(dashboard.Name) == "" {
		return fmt.Errorf("%w: dashboard name is required", apperrors.ErrValidation)
	}
	return nil
}

var _ DashboardService = (*dashboardService)(nil)
