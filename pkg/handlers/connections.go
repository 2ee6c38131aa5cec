package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
	"github.com/vizly-bi/vizly-engine/pkg/auth"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	"github.com/vizly-bi/vizly-engine/pkg/services"
)

// ConnectionRequest for create and test bodies. The password is write-only;
// responses never include it. Updates decode services.ConnectionUpdate
// directly so absent fields stay distinguishable.
type ConnectionRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSL      bool   `json:"ssl"`
}

func (r *ConnectionRequest) toModel() *models.Connection {
	return &models.Connection{
		Name:     r.Name,
		Type:     r.Type,
		Host:     r.Host,
		Port:     r.Port,
		Database: r.Database,
		Username: r.Username,
		SSL:      r.SSL,
	}
}

// TestResultPayload for connection test responses.
type TestResultPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ConnectionsHandler handles connection CRUD, testing, and schema reads.
type ConnectionsHandler struct {
	connectionService services.ConnectionService
	logger            *zap.Logger
}

// NewConnectionsHandler creates a new connections handler.
func NewConnectionsHandler(connectionService services.ConnectionService, logger *zap.Logger) *ConnectionsHandler {
	return &ConnectionsHandler{
		connectionService: connectionService,
		logger:            logger,
	}
}

// RegisterRoutes registers the connections handler's routes on the given mux.
func (h *ConnectionsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/connections", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/connections", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/connections/types", authMiddleware.RequireAuth(h.Types))
	mux.HandleFunc("POST /api/connections/test", authMiddleware.RequireAuth(h.TestUnsaved))
	mux.HandleFunc("GET /api/connections/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/connections/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/connections/{id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("POST /api/connections/{id}/test", authMiddleware.RequireAuth(h.Test))
	mux.HandleFunc("GET /api/connections/{id}/schema", authMiddleware.RequireAuth(h.Schema))
}

// List handles GET /api/connections.
func (h *ConnectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	connections, err := h.connectionService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, connections); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/connections.
func (h *ConnectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req ConnectionRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	conn, err := h.connectionService.Create(r.Context(), userID, req.toModel(), req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusCreated, conn); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/connections/{id}.
func (h *ConnectionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	conn, err := h.connectionService.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, conn); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/connections/{id}. Fields absent from the body
// keep their stored values, the password included.
func (h *ConnectionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var upd services.ConnectionUpdate
	if !decodeBody(w, r, &upd, h.logger) {
		return
	}

	updated, err := h.connectionService.Update(r.Context(), userID, id, upd)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, updated); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/connections/{id}.
func (h *ConnectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.connectionService.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, nil); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Test handles POST /api/connections/{id}/test. A failed dial is a success
// envelope with success=false, not an error status; the connection record
// itself was found and tested.
func (h *ConnectionsHandler) Test(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	h.writeTestResult(w, h.connectionService.Test(r.Context(), userID, id))
}

// TestUnsaved handles POST /api/connections/test.
func (h *ConnectionsHandler) TestUnsaved(w http.ResponseWriter, r *http.Request) {
	var req ConnectionRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	h.writeTestResult(w, h.connectionService.TestUnsaved(r.Context(), req.toModel(), req.Password))
}

func (h *ConnectionsHandler) writeTestResult(w http.ResponseWriter, err error) {
	if err != nil {
		if isDialFailure(err) {
			payload := TestResultPayload{Success: false, Message: err.Error()}
			if err := WriteSuccess(w, http.StatusOK, payload); err != nil {
				h.logger.Error("failed to write response", zap.Error(err))
			}
			return
		}
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, TestResultPayload{Success: true, Message: "Connection successful"}); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// isDialFailure reports whether the error came from the external database
// rather than from our own stack.
func isDialFailure(err error) bool {
	return errors.Is(err, apperrors.ErrExecutionFailed)
}

// Schema handles GET /api/connections/{id}/schema.
func (h *ConnectionsHandler) Schema(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	info, err := h.connectionService.Schema(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, info); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Types handles GET /api/connections/types.
func (h *ConnectionsHandler) Types(w http.ResponseWriter, r *http.Request) {
	if err := WriteSuccess(w, http.StatusOK, h.connectionService.Types()); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
