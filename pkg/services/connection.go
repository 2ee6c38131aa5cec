package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
	"github.com/vizly-bi/vizly-engine/pkg/crypto"
	"github.com/vizly-bi/vizly-engine/pkg/logging"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	"github.com/vizly-bi/vizly-engine/pkg/repositories"
)

// ConnectionUpdate carries a partial update. Nil fields keep their stored
// values; a nil or empty password keeps the stored one.
type ConnectionUpdate struct {
	Name     *string `json:"name"`
	Type     *string `json:"type"`
	Host     *string `json:"host"`
	Port     *int    `json:"port"`
	Database *string `json:"database"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	SSL      *bool   `json:"ssl"`
}

// ConnectionService manages saved connections to external databases.
// Passwords are encrypted before they reach the repository and decrypted
// only when an adapter needs to dial out.
type ConnectionService interface {
	// Create validates and stores a connection.
	Create(ctx context.Context, userID uuid.UUID, conn *models.Connection, password string) (*models.Connection, error)

	// Get retrieves a connection owned by userID, without the password.
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Connection, error)

	// List retrieves all connections for a user.
	List(ctx context.Context, userID uuid.UUID) ([]*models.Connection, error)

	// Update applies a partial update to a connection owned by userID.
	Update(ctx context.Context, userID, id uuid.UUID, upd ConnectionUpdate) (*models.Connection, error)

	// Delete removes a connection unless saved queries depend on it.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// Test dials a saved connection and reports whether it responds.
	Test(ctx context.Context, userID, id uuid.UUID) error

	// TestUnsaved dials a connection payload that has not been stored.
	TestUnsaved(ctx context.Context, conn *models.Connection, password string) error

	// Schema lists tables and columns of the external database.
	Schema(ctx context.Context, userID, id uuid.UUID) (*datasource.SchemaInfo, error)

	// Types lists the connection types this build supports.
	Types() []datasource.AdapterInfo
}

type connectionService struct {
	connections repositories.ConnectionRepository
	secrets     *crypto.SecretBox
	adapters    datasource.AdapterFactory
	timeout     time.Duration
	logger      *zap.Logger
}

// NewConnectionService creates a new connection service. timeout bounds
// every external dial and schema read.
func NewConnectionService(
	connections repositories.ConnectionRepository,
	secrets *crypto.SecretBox,
	adapters datasource.AdapterFactory,
	timeout time.Duration,
	logger *zap.Logger,
) ConnectionService {
	return &connectionService{
		connections: connections,
		secrets:     secrets,
		adapters:    adapters,
		timeout:     timeout,
		logger:      logger,
	}
}

func (s *connectionService) Create(ctx context.Context, userID uuid.UUID, conn *models.Connection, password string) (*models.Connection, error) {
	if err := validateConnection(conn); err != nil {
		return nil, err
	}

	encrypted, err := s.secrets.Encrypt(password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt password: %w", err)
	}

	conn.UserID = userID
	if err := s.connections.Create(ctx, conn, encrypted); err != nil {
		return nil, err
	}

	s.logger.Info("connection created",
		zap.String("connection_id", conn.ID.String()),
		zap.String("type", conn.Type))

	return conn, nil
}

func (s *connectionService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Connection, error) {
	conn, _, err := s.connections.GetByID(ctx, userID, id)
	return conn, err
}

func (s *connectionService) List(ctx context.Context, userID uuid.UUID) ([]*models.Connection, error) {
	return s.connections.List(ctx, userID)
}

func (s *connectionService) Update(ctx context.Context, userID, id uuid.UUID, upd ConnectionUpdate) (*models.Connection, error) {
	conn, _, err := s.connections.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		conn.Name = *upd.Name
	}
	if upd.Type != nil {
		conn.Type = *upd.Type
	}
	if upd.Host != nil {
		conn.Host = *upd.Host
	}
	if upd.Port != nil {
		conn.Port = *upd.Port
	}
	if upd.Database != nil {
		conn.Database = *upd.Database
	}
	if upd.Username != nil {
		conn.Username = *upd.Username
	}
	if upd.SSL != nil {
		conn.SSL = *upd.SSL
	}

	if err := validateConnection(conn); err != nil {
		return nil, err
	}

	encrypted := ""
	if upd.Password != nil && *upd.Password != "" {
		encrypted, err = s.secrets.Encrypt(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt password: %w", err)
		}
	}

	if err := s.connections.Update(ctx, userID, conn, encrypted); err != nil {
		return nil, err
	}

	updated, _, err := s.connections.GetByID(ctx, userID, id)
	return updated, err
}

func (s *connectionService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.connections.Delete(ctx, userID, id)
}

func (s *connectionService) Test(ctx context.Context, userID, id uuid.UUID) error {
	conn, encrypted, err := s.connections.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	password, err := s.decrypt(encrypted)
	if err != nil {
		return err
	}

	return s.dial(ctx, conn, password)
}

func (s *connectionService) TestUnsaved(ctx context.Context, conn *models.Connection, password string) error {
	if err := validateConnection(conn); err != nil {
		return err
	}
	return s.dial(ctx, conn, password)
}

func (s *connectionService) Schema(ctx context.Context, userID, id uuid.UUID) (*datasource.SchemaInfo, error) {
	conn, encrypted, err := s.connections.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	password, err := s.decrypt(encrypted)
	if err != nil {
		return nil, err
	}

	adapter, err := s.adapters.NewAdapter(conn, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}
	defer adapter.Close()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	info, err := adapter.Schema(ctx)
	if err != nil {
		s.logger.Warn("schema read failed",
			zap.String("connection_id", conn.ID.String()),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("%w: %s", apperrors.ErrExecutionFailed, logging.SanitizeError(err))
	}

	return info, nil
}

func (s *connectionService) Types() []datasource.AdapterInfo {
	return s.adapters.ListTypes()
}

func (s *connectionService) dial(ctx context.Context, conn *models.Connection, password string) error {
	adapter, err := s.adapters.NewAdapter(conn, password)
	if err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}
	defer adapter.Close()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := adapter.TestConnection(ctx); err != nil {
		s.logger.Info("connection test failed",
			zap.String("type", conn.Type),
			zap.String("error", logging.SanitizeError(err)))
		return fmt.Errorf("%w: %s", apperrors.ErrExecutionFailed, logging.SanitizeError(err))
	}

	return nil
}

func (s *connectionService) decrypt(encrypted string) (string, error) {
	password, err := s.secrets.Decrypt(encrypted)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return "", apperrors.ErrSecretsKeyMismatch
		}
		return "", fmt.Errorf("failed to decrypt password: %w", err)
	}
	return password, nil
}

func validateConnection(conn *models.Connection) error {
	if strings.TrimSpace(conn.Name) == "" {
		return fmt.Errorf("%w: connection name is required", apperrors.ErrValidation)
	}
	if !models.IsValidConnectionType(conn.Type) {
		return fmt.Errorf("%w: unsupported connection type %q", apperrors.ErrValidation, conn.Type)
	}
	if conn.Type == models.ConnectionSQLite {
		if conn.Database == "" {
			return fmt.Errorf("%w: sqlite connections require a file path", apperrors.ErrValidation)
		}
		return nil
	}
	if conn.Host == "" {
		return fmt.Errorf("%w: host is required", apperrors.ErrValidation)
	}
	if conn.Database == "" {
		return fmt.Errorf("%w: database name is required", apperrors.ErrValidation)
	}
	return nil
}

var _ ConnectionService = (*connectionService)(nil)
