package models

import (
	"time"

	"github.com/google/uuid"
)

// Dashboard arranges visualizations on a grid. Membership is carried by
// DashboardItem rows; the grid cell on each item is rendering metadata, not
// a parallel source of truth.
type Dashboard struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Items []*DashboardItem `json:"items,omitempty"`
}

// GridCell is the position and size of one item on the dashboard grid.
type GridCell struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// DashboardItem places one visualization on one dashboard.
type DashboardItem struct {
	ID              uuid.UUID `json:"id"`
	DashboardID     uuid.UUID `json:"dashboard_id"`
	VisualizationID uuid.UUID `json:"visualization_id"`
	Position        int       `json:"position"`
	Cell            GridCell  `json:"cell"`
	CreatedAt       time.Time `json:"created_at"`

	Visualization *Visualization `json:"visualization,omitempty"`
	Query         *QuerySummary  `json:"query,omitempty"`
}

// QuerySummary is the slice of a saved query that dashboard rendering
// needs: enough to re-execute without fetching the full record.
type QuerySummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ConnectionID uuid.UUID `json:"connection_id"`
}
