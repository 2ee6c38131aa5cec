package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/auth"
	"github.com/vizly-bi/vizly-engine/pkg/services"
)

// UpdateRoleRequest for PUT /api/users/{id}/role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UsersHandler handles the admin-only user management endpoints.
type UsersHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
// Every route requires the admin role.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/users", authMiddleware.RequireAdmin(h.List))
	mux.HandleFunc("PUT /api/users/{id}/role", authMiddleware.RequireAdmin(h.UpdateRole))
	mux.HandleFunc("DELETE /api/users/{id}", authMiddleware.RequireAdmin(h.Delete))
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, users); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// UpdateRole handles PUT /api/users/{id}/role.
func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	user, err := h.userService.UpdateRole(r.Context(), id, req.Role)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, user); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, nil); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
