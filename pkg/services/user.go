package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	"github.com/vizly-bi/vizly-engine/pkg/repositories"
)

// UserService covers the admin-facing user management surface.
type UserService interface {
	// List returns all users.
	List(ctx context.Context) ([]*models.User, error)

	// UpdateRole changes a user's role. Rejects unknown roles and refuses
	// to demote the last admin.
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error)

	// Delete removes a user. Refuses to delete the last admin.
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{users: users, logger: logger}
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

func (s *userService) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidRole, role)
	}

	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	s.logger.Info("user role changed",
		zap.String("user_id", id.String()),
		zap.String("role", role))

	return s.users.GetByID(ctx, id)
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", zap.String("user_id", id.String()))
	return nil
}

var _ UserService = (*userService)(nil)
