package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
	"github.com/vizly-bi/vizly-engine/pkg/models"
)

// ConnectionRepository defines the interface for connection data access.
// The password is stored as encrypted TEXT - encryption/decryption is
// handled by the service layer.
type ConnectionRepository interface {
	// Create inserts a new connection. Returns apperrors.ErrConflict if the
	// user already has a connection with the same name.
	Create(ctx context.Context, conn *models.Connection, encryptedPassword string) error

	// GetByID retrieves a connection owned by userID. Returns the model and
	// encrypted password.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Connection, string, error)

	// List retrieves all connections for a user, most recently updated first.
	List(ctx context.Context, userID uuid.UUID) ([]*models.Connection, error)

	// Update modifies an existing connection owned by userID. An empty
	// encryptedPassword keeps the stored one.
	Update(ctx context.Context, userID uuid.UUID, conn *models.Connection, encryptedPassword string) error

	// Delete removes a connection owned by userID. Returns
	// apperrors.ErrConnectionInUse if saved queries still reference it.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type connectionRepository struct {
	pool *pgxpool.Pool
}

// NewConnectionRepository creates a new connection repository.
func NewConnectionRepository(pool *pgxpool.Pool) ConnectionRepository {
	return &connectionRepository{pool: pool}
}

func (r *connectionRepository) Create(ctx context.Context, conn *models.Connection, encryptedPassword string) error {
	now := time.Now()
	conn.CreatedAt = now
	conn.UpdatedAt = now
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}

	query := `
		INSERT INTO connections (id, user_id, name, type, host, port, database, username, password_enc, ssl, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		conn.ID,
		conn.UserID,
		conn.Name,
		conn.Type,
		conn.Host,
		conn.Port,
		conn.Database,
		conn.Username,
		encryptedPassword,
		conn.SSL,
		conn.CreatedAt,
		conn.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create connection: %w", err)
	}

	return nil
}

func (r *connectionRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Connection, string, error) {
	query := `
		SELECT id, user_id, name, type, host, port, database, username, password_enc, ssl, created_at, updated_at
		FROM connections
		WHERE user_id = $1 AND id = $2`

	var conn models.Connection
	var encryptedPassword string
	err := r.pool.QueryRow(ctx, query, userID, id).Scan(
		&conn.ID,
		&conn.UserID,
		&conn.Name,
		&conn.Type,
		&conn.Host,
		&conn.Port,
		&conn.Database,
		&conn.Username,
		&encryptedPassword,
		&conn.SSL,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperrors.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to get connection: %w", err)
	}

	return &conn, encryptedPassword, nil
}

func (r *connectionRepository) List(ctx context.Context, userID uuid.UUID) ([]*models.Connection, error) {
	query := `
		SELECT id, user_id, name, type, host, port, database, username, ssl, created_at, updated_at
		FROM connections
		WHERE user_id = $1
		ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		var conn models.Connection
		err := rows.Scan(
			&conn.ID,
			&conn.UserID,
			&conn.Name,
			&conn.Type,
			&conn.Host,
			&conn.Port,
			&conn.Database,
			&conn.Username,
			&conn.SSL,
			&conn.CreatedAt,
			&conn.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, &conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return connections, nil
}

func (r *connectionRepository) Update(ctx context.Context, userID uuid.UUID, conn *models.Connection, encryptedPassword string) error {
	conn.UpdatedAt = time.Now()

	// COALESCE(NULLIF(...)) keeps the stored password when the caller did
	// not supply a new one.
	query := `
		UPDATE connections
		SET name = $3, type = $4, host = $5, port = $6, database = $7, username = $8,
		    password_enc = COALESCE(NULLIF($9, ''), password_enc), ssl = $10, updated_at = $11
		WHERE user_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, query,
		userID,
		conn.ID,
		conn.Name,
		conn.Type,
		conn.Host,
		conn.Port,
		conn.Database,
		conn.Username,
		encryptedPassword,
		conn.SSL,
		conn.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to update connection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *connectionRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM connections WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		// 23503: saved queries still reference this connection.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperrors.ErrConnectionInUse
		}
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

var _ ConnectionRepository = (*connectionRepository)(nil)
