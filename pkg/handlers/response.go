// Package handlers implements the HTTP surface. Handlers decode requests,
// call services, and translate sentinel errors into status codes; all
// responses share the {status, data?, message?} envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
)

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteSuccess writes a success envelope with the given status code.
func WriteSuccess(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(APIResponse{Status: "success", Data: data})
}

// WriteError writes an error envelope with the given status code.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(APIResponse{Status: "error", Message: message})
}

// writeServiceError maps sentinel errors from the service layer onto HTTP
// status codes. Anything unmapped is a 500 with a generic message; the
// details stay in the log.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var statusCode int
	message := err.Error()

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Not found"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		message = "Invalid credentials"
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrEmailTaken),
		errors.Is(err, apperrors.ErrInvalidRole),
		errors.Is(err, apperrors.ErrUnsafeParameter),
		errors.Is(err, apperrors.ErrExecutionFailed):
		statusCode = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrLastAdmin),
		errors.Is(err, apperrors.ErrConnectionInUse):
		statusCode = http.StatusConflict
	case errors.Is(err, apperrors.ErrSecretsKeyMismatch):
		statusCode = http.StatusInternalServerError
		message = "Stored credentials cannot be decrypted; check CONNECTION_SECRETS_KEY"
	default:
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
		logger.Error("unhandled service error", zap.Error(err))
	}

	if err := WriteError(w, statusCode, message); err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
}
