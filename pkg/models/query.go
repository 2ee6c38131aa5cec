package models

import (
	"time"

	"github.com/google/uuid"
)

// Query is a saved SQL statement scoped to exactly one connection. The SQL
// may contain {{name}} placeholders bound at execution time.
type Query struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	ConnectionID uuid.UUID `json:"connection_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	SQLText      string    `json:"sql_text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
