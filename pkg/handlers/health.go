package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// HealthHandler serves liveness endpoints.
type HealthHandler struct {
	version string
	logger  *zap.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{version: version, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"service": "vizly-engine",
		"version": h.version,
	}
	if err := WriteSuccess(w, http.StatusOK, data); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// Ping handles GET /ping.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := WriteSuccess(w, http.StatusOK, "pong"); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
