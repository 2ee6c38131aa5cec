package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/auth"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	"github.com/vizly-bi/vizly-engine/pkg/services"
)

// QueryRequest for create bodies. Updates decode services.QueryUpdate
// directly so absent fields stay distinguishable.
type QueryRequest struct {
	ConnectionID uuid.UUID `json:"connection_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	SQL          string    `json:"sql"`
}

// QueriesHandler handles saved query CRUD and execution.
type QueriesHandler struct {
	queryService services.QueryService
	logger       *zap.Logger
}

// NewQueriesHandler creates a new queries handler.
func NewQueriesHandler(queryService services.QueryService, logger *zap.Logger) *QueriesHandler {
	return &QueriesHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// RegisterRoutes registers the queries handler's routes on the given mux.
func (h *QueriesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/queries", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/queries", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/queries/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/queries/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/queries/{id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("POST /api/queries/{id}/execute", authMiddleware.RequireAuth(h.Execute))
	mux.HandleFunc("GET /api/queries/{id}/runs", authMiddleware.RequireAuth(h.Runs))
	mux.HandleFunc("GET /api/queries/{id}/parameters", authMiddleware.RequireAuth(h.Parameters))
}

// List handles GET /api/queries.
func (h *QueriesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	queries, err := h.queryService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, queries); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/queries.
func (h *QueriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req QueryRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	query, err := h.queryService.Create(r.Context(), userID, &models.Query{
		ConnectionID: req.ConnectionID,
		Name:         req.Name,
		Description:  req.Description,
		SQLText:      req.SQL,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusCreated, query); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/queries/{id}.
func (h *QueriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	query, err := h.queryService.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, query); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/queries/{id}. Fields absent from the body keep
// their stored values.
func (h *QueriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var upd services.QueryUpdate
	if !decodeBody(w, r, &upd, h.logger) {
		return
	}

	query, err := h.queryService.Update(r.Context(), userID, id, upd)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, query); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/queries/{id}.
func (h *QueriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.queryService.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, nil); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Execute handles POST /api/queries/{id}/execute. An empty body runs the
// query without parameters at the default row cap.
func (h *QueriesHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req services.ExecuteRequest
	if !decodeOptionalBody(w, r, &req, h.logger) {
		return
	}

	result, err := h.queryService.Execute(r.Context(), userID, id, req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, result); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Runs handles GET /api/queries/{id}/runs.
func (h *QueriesHandler) Runs(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			if err := WriteError(w, http.StatusBadRequest, "Invalid limit"); err != nil {
				h.logger.Error("failed to write error response", zap.Error(err))
			}
			return
		}
		limit = parsed
	}

	runs, err := h.queryService.Runs(r.Context(), userID, id, limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, runs); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Parameters handles GET /api/queries/{id}/parameters.
func (h *QueriesHandler) Parameters(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	params, err := h.queryService.Parameters(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if params == nil {
		params = []string{}
	}
	if err := WriteSuccess(w, http.StatusOK, params); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
