package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/auth"
)

// pathID parses a UUID path segment. Writes a 400 and returns false on a
// malformed value.
func pathID(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		if err := WriteError(w, http.StatusBadRequest, "Invalid ID format"); err != nil {
			logger.Error("failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// currentUserID pulls the authenticated user's ID out of the context.
// Writes a 401 and returns false if the request is unauthenticated, which
// only happens when a route is miswired without the auth middleware.
func currentUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		if err := WriteError(w, http.StatusUnauthorized, "Authentication required"); err != nil {
			logger.Error("failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return userID, true
}

// decodeBody decodes a JSON request body. Writes a 400 and returns false
// on malformed JSON.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err := WriteError(w, http.StatusBadRequest, "Invalid request body"); err != nil {
			logger.Error("failed to write error response", zap.Error(err))
		}
		return false
	}
	return true
}

// decodeOptionalBody decodes a JSON request body, leaving dst at its zero
// value when the body is empty. Emptiness is detected by the decoder
// hitting EOF before any token; chunked requests carry no Content-Length,
// so the header cannot be trusted for this.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	if err := WriteError(w, http.StatusBadRequest, "Invalid request body"); err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
	return false
}
