package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/auth"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	"github.com/vizly-bi/vizly-engine/pkg/services"
)

// DashboardRequest for create bodies. Updates decode
// services.DashboardUpdate directly so absent fields stay distinguishable.
type DashboardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

// LayoutItemRequest is one item in a layout replacement.
type LayoutItemRequest struct {
	VisualizationID uuid.UUID `json:"visualization_id"`
	X               int       `json:"x"`
	Y               int       `json:"y"`
	W               int       `json:"w"`
	H               int       `json:"h"`
}

// LayoutRequest for PUT /api/dashboards/{id}/layout. Item order in the
// slice becomes the stored position.
type LayoutRequest struct {
	Items []LayoutItemRequest `json:"items"`
}

// DashboardsHandler handles dashboard CRUD, layout, and public reads.
type DashboardsHandler struct {
	dashboardService services.DashboardService
	logger           *zap.Logger
}

// NewDashboardsHandler creates a new dashboards handler.
func NewDashboardsHandler(dashboardService services.DashboardService, logger *zap.Logger) *DashboardsHandler {
	return &DashboardsHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// RegisterRoutes registers the dashboards handler's routes on the given mux.
// The public read is deliberately outside the auth middleware.
func (h *DashboardsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/dashboards", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/dashboards", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/dashboards/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/dashboards/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/dashboards/{id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("PUT /api/dashboards/{id}/layout", authMiddleware.RequireAuth(h.ReplaceLayout))
	mux.HandleFunc("GET /api/public/dashboards/{id}", h.GetPublic)
}

// List handles GET /api/dashboards.
func (h *DashboardsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	dashboards, err := h.dashboardService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, dashboards); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/dashboards.
func (h *DashboardsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req DashboardRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	dashboard, err := h.dashboardService.Create(r.Context(), userID, &models.Dashboard{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusCreated, dashboard); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/dashboards/{id}.
func (h *DashboardsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, dashboard); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// GetPublic handles GET /api/public/dashboards/{id}. No authentication;
// only dashboards marked public resolve, everything else is 404.
func (h *DashboardsHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.GetPublic(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, dashboard); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/dashboards/{id}. Fields absent from the body
// keep their stored values.
func (h *DashboardsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var upd services.DashboardUpdate
	if !decodeBody(w, r, &upd, h.logger) {
		return
	}

	dashboard, err := h.dashboardService.Update(r.Context(), userID, id, upd)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, dashboard); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/dashboards/{id}.
func (h *DashboardsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.dashboardService.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, nil); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// ReplaceLayout handles PUT /api/dashboards/{id}/layout.
func (h *DashboardsHandler) ReplaceLayout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req LayoutRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	items := make([]*models.DashboardItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = &models.DashboardItem{
			VisualizationID: item.VisualizationID,
			Cell:            models.GridCell{X: item.X, Y: item.Y, W: item.W, H: item.H},
		}
	}

	dashboard, err := h.dashboardService.ReplaceLayout(r.Context(), userID, id, items)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, dashboard); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
