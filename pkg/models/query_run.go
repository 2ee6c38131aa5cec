package models

import (
	"time"

	"github.com/google/uuid"
)

// Query run status values.
const (
	RunSuccess = "success"
	RunError   = "error"
)

// QueryRun records one execution of a saved query: who ran it, how long it
// took, and how it ended. Written on every execute call.
type QueryRun struct {
	ID           uuid.UUID `json:"id"`
	QueryID      uuid.UUID `json:"query_id"`
	UserID       uuid.UUID `json:"user_id"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	RowCount     int       `json:"row_count"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}
