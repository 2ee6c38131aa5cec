package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/auth"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	"github.com/vizly-bi/vizly-engine/pkg/services"
)

// VisualizationRequest for create bodies. Updates decode
// services.VisualizationUpdate directly so absent fields stay
// distinguishable.
type VisualizationRequest struct {
	QueryID   uuid.UUID      `json:"query_id"`
	Name      string         `json:"name"`
	ChartType string         `json:"chart_type"`
	Config    map[string]any `json:"config"`
}

// VisualizationsHandler handles visualization CRUD.
type VisualizationsHandler struct {
	visualizationService services.VisualizationService
	logger               *zap.Logger
}

// NewVisualizationsHandler creates a new visualizations handler.
func NewVisualizationsHandler(visualizationService services.VisualizationService, logger *zap.Logger) *VisualizationsHandler {
	return &VisualizationsHandler{
		visualizationService: visualizationService,
		logger:               logger,
	}
}

// RegisterRoutes registers the visualizations handler's routes on the given mux.
func (h *VisualizationsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/visualizations", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/visualizations", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/visualizations/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/visualizations/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/visualizations/{id}", authMiddleware.RequireAuth(h.Delete))
}

// List handles GET /api/visualizations.
func (h *VisualizationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	visualizations, err := h.visualizationService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, visualizations); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/visualizations.
func (h *VisualizationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req VisualizationRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	viz, err := h.visualizationService.Create(r.Context(), userID, &models.Visualization{
		QueryID:   req.QueryID,
		Name:      req.Name,
		ChartType: req.ChartType,
		Config:    req.Config,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusCreated, viz); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/visualizations/{id}.
func (h *VisualizationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	viz, err := h.visualizationService.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, viz); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/visualizations/{id}. Fields absent from the
// body keep their stored values. The bound query cannot be changed after
// creation; rebinding is a delete + create.
func (h *VisualizationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var upd services.VisualizationUpdate
	if !decodeBody(w, r, &upd, h.logger) {
		return
	}

	viz, err := h.visualizationService.Update(r.Context(), userID, id, upd)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, viz); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/visualizations/{id}.
func (h *VisualizationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.visualizationService.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, nil); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
