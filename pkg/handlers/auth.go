package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/auth"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	"github.com/vizly-bi/vizly-engine/pkg/services"
)

// RegisterRequest for POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest for PUT /api/auth/me.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdatePasswordRequest for PUT /api/auth/me/password.
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// AuthPayload pairs a user with a token for register/login responses.
type AuthPayload struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// AuthHandler handles registration, login, and the /me surface.
type AuthHandler struct {
	authService services.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("GET /api/auth/me", authMiddleware.RequireAuth(h.Me))
	mux.HandleFunc("PUT /api/auth/me", authMiddleware.RequireAuth(h.UpdateProfile))
	mux.HandleFunc("PUT /api/auth/me/password", authMiddleware.RequireAuth(h.UpdatePassword))
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	user, token, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusCreated, AuthPayload{User: user, Token: token}); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, AuthPayload{User: user, Token: token}); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, user); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// UpdateProfile handles PUT /api/auth/me.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), userID, req.Name, req.Email)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, user); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// UpdatePassword handles PUT /api/auth/me/password.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	if err := h.authService.UpdatePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, nil); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
