package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
	"github.com/vizly-bi/vizly-engine/pkg/models"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada", Role: models.RoleUser}
	handler := NewAuthHandler(&mockAuthService{user: user, token: "signed-token"}, zap.NewNop())

	body, _ := json.Marshal(RegisterRequest{Email: "ada@example.com", Password: "correcthorse", Name: "Ada"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if env.Status != "success" {
		t.Errorf("expected status 'success', got %q", env.Status)
	}

	var payload AuthPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}
	if payload.Token != "signed-token" {
		t.Errorf("expected token 'signed-token', got %q", payload.Token)
	}
	if payload.User.Email != "ada@example.com" {
		t.Errorf("expected user email in payload, got %q", payload.User.Email)
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{err: apperrors.ErrEmailTaken}, zap.NewNop())

	body, _ := json.Marshal(RegisterRequest{Email: "ada@example.com", Password: "correcthorse"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Status != "error" {
		t.Errorf("expected status 'error', got %q", env.Status)
	}
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{err: apperrors.ErrInvalidCredentials}, zap.NewNop())

	body, _ := json.Marshal(LoginRequest{Email: "ada@example.com", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Message != "Invalid credentials" {
		t.Errorf("expected generic credentials message, got %q", env.Message)
	}
}

func TestAuthHandler_Me_ReturnsUser(t *testing.T) {
	userID := uuid.New()
	user := &models.User{ID: userID, Email: "ada@example.com", Role: models.RoleUser}
	handler := NewAuthHandler(&mockAuthService{user: user}, zap.NewNop())

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), userID, models.RoleUser)
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var got models.User
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &got); err != nil {
		t.Fatalf("failed to parse user: %v", err)
	}
	if got.ID != userID {
		t.Errorf("expected user %s, got %s", userID, got.ID)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthHandler_UpdatePassword_WrongOldPassword(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{err: apperrors.ErrInvalidCredentials}, zap.NewNop())

	body, _ := json.Marshal(UpdatePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword1"})
	req := authedRequest(httptest.NewRequest(http.MethodPut, "/api/auth/me/password", bytes.NewReader(body)), uuid.New(), models.RoleUser)
	rec := httptest.NewRecorder()

	handler.UpdatePassword(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}
