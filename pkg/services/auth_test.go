package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
	"github.com/vizly-bi/vizly-engine/pkg/auth"
	"github.com/vizly-bi/vizly-engine/pkg/models"
)

func newAuthService(users *mockUserRepository) AuthService {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	return NewAuthService(users, tokens, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	users := newMockUserRepository()
	svc := newAuthService(users)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Alice@Example.com", "hunter2hunter2", "Alice")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.Role != models.RoleUser {
		t.Errorf("role = %q, want user", user.Role)
	}
	if user.PasswordHash == "hunter2hunter2" {
		t.Error("password stored in plaintext")
	}

	loggedIn, token, err := svc.Login(ctx, "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loggedIn.ID != user.ID || token == "" {
		t.Error("login did not return the registered user with a token")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := newMockUserRepository()
	svc := newAuthService(users)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "a@b.com", "password123", "A"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, _, err := svc.Register(ctx, "a@b.com", "password456", "B"); !errors.Is(err, apperrors.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newAuthService(newMockUserRepository())
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "not-an-email", "password123", ""); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("bad email: expected ErrValidation, got %v", err)
	}
	if _, _, err := svc.Register(ctx, "a@b.com", "short", ""); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("short password: expected ErrValidation, got %v", err)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	users := newMockUserRepository()
	svc := newAuthService(users)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "a@b.com", "password123", "A"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Unknown email and wrong password must be indistinguishable.
	_, _, unknownErr := svc.Login(ctx, "nobody@b.com", "password123")
	_, _, wrongErr := svc.Login(ctx, "a@b.com", "wrong-password")

	if !errors.Is(unknownErr, apperrors.ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, apperrors.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Error("login errors differ between unknown email and wrong password")
	}
}

func TestUpdatePassword(t *testing.T) {
	users := newMockUserRepository()
	svc := newAuthService(users)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "a@b.com", "password123", "A")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.UpdatePassword(ctx, user.ID, "wrong-old", "newpassword1"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("wrong old password: expected ErrInvalidCredentials, got %v", err)
	}

	if err := svc.UpdatePassword(ctx, user.ID, "password123", "newpassword1"); err != nil {
		t.Fatalf("update password failed: %v", err)
	}

	if _, _, err := svc.Login(ctx, "a@b.com", "newpassword1"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@b.com", "password123"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Error("old password still accepted")
	}
}

func TestUpdateProfile(t *testing.T) {
	users := newMockUserRepository()
	svc := newAuthService(users)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "a@b.com", "password123", "A")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, user.ID, "Alice Cooper", "")
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.Name != "Alice Cooper" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.Email != "a@b.com" {
		t.Errorf("email changed unexpectedly: %q", updated.Email)
	}
}
