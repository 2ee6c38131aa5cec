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

// VisualizationUpdate carries a partial update. Nil fields keep their
// stored values; the query binding is fixed at creation.
type VisualizationUpdate struct {
	Name      *string        `json:"name"`
	ChartType *string        `json:"chart_type"`
	Config    map[string]any `json:"config"`
}

// VisualizationService manages visualizations. Ownership is transitive:
// a visualization belongs to whoever owns its query.
type VisualizationService interface {
	Create(ctx context.Context, userID uuid.UUID, viz *models.Visualization) (*models.Visualization, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Visualization, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Visualization, error)
	Update(ctx context.Context, userID, id uuid.UUID, upd VisualizationUpdate) (*models.Visualization, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type visualizationService struct {
	visualizations repositories.VisualizationRepository
	logger         *zap.Logger
}

// NewVisualizationService creates a new visualization service.
func NewVisualizationService(visualizations repositories.VisualizationRepository, logger *zap.Logger) VisualizationService {
	return &visualizationService{
		visualizations: visualizations,
		logger:         logger,
	}
}

func (s *visualizationService) Create(ctx context.Context, userID uuid.UUID, viz *models.Visualization) (*models.Visualization, error) {
	if err := validateVisualization(viz); err != nil {
		return nil, err
	}

	if err := s.visualizations.Create(ctx, userID, viz); err != nil {
		return nil, err
	}

	return viz, nil
}

func (s *visualizationService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Visualization, error) {
	return s.visualizations.GetByID(ctx, userID, id)
}

func (s *visualizationService) List(ctx context.Context, userID uuid.UUID) ([]*models.Visualization, error) {
	return s.visualizations.List(ctx, userID)
}

func (s *visualizationService) Update(ctx context.Context, userID, id uuid.UUID, upd VisualizationUpdate) (*models.Visualization, error) {
	viz, err := s.visualizations.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		viz.Name = *upd.Name
	}
	if upd.ChartType != nil {
		viz.ChartType = *upd.ChartType
	}
	if upd.Config != nil {
		viz.Config = upd.Config
	}

	if err := validateVisualization(viz); err != nil {
		return nil, err
	}

	if err := s.visualizations.Update(ctx, userID, viz); err != nil {
		return nil, err
	}

	return s.visualizations.GetByID(ctx, userID, id)
}

func (s *visualizationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.visualizations.Delete(ctx, userID, id)
}

func validateVisualization(viz *models.Visualization) error {
	if strings.TrimSpace(viz.Name) == "" {
		return fmt.Errorf("%w: visualization name is required", apperrors.ErrValidation)
	}
	if !models.IsValidChartType(viz.ChartType) {
		return fmt.Errorf("%w: unknown chart type %q", apperrors.ErrValidation, viz.ChartType)
	}
	return nil
}

var _ VisualizationService = (*visualizationService)(nil)
