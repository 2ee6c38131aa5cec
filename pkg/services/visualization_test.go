package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
	"github.com/vizly-bi/vizly-engine/pkg/models"
)

// mockVisualizationRepository keys visualizations by owner so transitive
// ownership behaves like the real join through queries.
type mockVisualizationRepository struct {
	byID map[uuid.UUID]*ownedViz
}

type ownedViz struct {
	owner uuid.UUID
	viz   *models.Visualization
}

func newMockVisualizationRepository() *mockVisualizationRepository {
	return &mockVisualizationRepository{byID: make(map[uuid.UUID]*ownedViz)}
}

func (m *mockVisualizationRepository) Create(ctx context.Context, userID uuid.UUID, viz *models.Visualization) error {
	if viz.ID == uuid.Nil {
		viz.ID = uuid.New()
	}
	m.byID[viz.ID] = &ownedViz{owner: userID, viz: viz}
	return nil
}

func (m *mockVisualizationRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Visualization, error) {
	entry, ok := m.byID[id]
	if !ok || entry.owner != userID {
		return nil, apperrors.ErrNotFound
	}
	return entry.viz, nil
}

func (m *mockVisualizationRepository) List(ctx context.Context, userID uuid.UUID) ([]*models.Visualization, error) {
	var out []*models.Visualization
	for _, entry := range m.byID {
		if entry.owner == userID {
			out = append(out, entry.viz)
		}
	}
	return out, nil
}

func (m *mockVisualizationRepository) Update(ctx context.Context, userID uuid.UUID, viz *models.Visualization) error {
	entry, ok := m.byID[viz.ID]
	if !ok || entry.owner != userID {
		return apperrors.ErrNotFound
	}
	viz.QueryID = entry.viz.QueryID
	entry.viz = viz
	return nil
}

func (m *mockVisualizationRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	entry, ok := m.byID[id]
	if !ok || entry.owner != userID {
		return apperrors.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func TestVisualizationService_Create_ValidatesChartType(t *testing.T) {
	svc := NewVisualizationService(newMockVisualizationRepository(), zap.NewNop())

	_, err := svc.Create(context.Background(), uuid.New(), &models.Visualization{
		QueryID:   uuid.New(),
		Name:      "Revenue",
		ChartType: "hologram",
	})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown chart type, got %v", err)
	}

	_, err = svc.Create(context.Background(), uuid.New(), &models.Visualization{
		QueryID:   uuid.New(),
		Name:      "  ",
		ChartType: models.ChartBar,
	})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected ErrValidation for blank name, got %v", err)
	}
}

func TestVisualizationService_TransitiveOwnership(t *testing.T) {
	repo := newMockVisualizationRepository()
	svc := NewVisualizationService(repo, zap.NewNop())

	owner := uuid.New()
	viz, err := svc.Create(context.Background(), owner, &models.Visualization{
		QueryID:   uuid.New(),
		Name:      "Revenue by month",
		ChartType: models.ChartLine,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(context.Background(), owner, viz.ID); err != nil {
		t.Errorf("owner should see the visualization: %v", err)
	}

	stranger := uuid.New()
	if _, err := svc.Get(context.Background(), stranger, viz.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign user, got %v", err)
	}
	if err := svc.Delete(context.Background(), stranger, viz.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound on foreign delete, got %v", err)
	}
}

func TestVisualizationService_Update_KeepsQueryBinding(t *testing.T) {
	repo := newMockVisualizationRepository()
	svc := NewVisualizationService(repo, zap.NewNop())

	owner := uuid.New()
	queryID := uuid.New()
	viz, err := svc.Create(context.Background(), owner, &models.Visualization{
		QueryID:   queryID,
		Name:      "Revenue",
		ChartType: models.ChartBar,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(context.Background(), owner, viz.ID, VisualizationUpdate{
		Name:      ptr("Revenue (quarterly)"),
		ChartType: ptr(models.ChartLine),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.QueryID != queryID {
		t.Errorf("expected query binding to survive update, got %s", updated.QueryID)
	}
	if updated.ChartType != models.ChartLine {
		t.Errorf("expected chart type updated, got %s", updated.ChartType)
	}
}

func TestVisualizationService_Update_RenameOnly(t *testing.T) {
	repo := newMockVisualizationRepository()
	svc := NewVisualizationService(repo, zap.NewNop())

	owner := uuid.New()
	viz, err := svc.Create(context.Background(), owner, &models.Visualization{
		QueryID:   uuid.New(),
		Name:      "Revenue",
		ChartType: models.ChartBar,
		Config:    map[string]any{"stacked": true},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(context.Background(), owner, viz.ID, VisualizationUpdate{
		Name: ptr("Weekly revenue"),
	})
	if err != nil {
		t.Fatalf("rename-only update failed: %v", err)
	}
	if updated.Name != "Weekly revenue" {
		t.Errorf("name not updated: %q", updated.Name)
	}
	if updated.ChartType != models.ChartBar {
		t.Errorf("chart type changed on rename: %s", updated.ChartType)
	}
	if updated.Config["stacked"] != true {
		t.Errorf("config changed on rename: %v", updated.Config)
	}
}
