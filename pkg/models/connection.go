package models

import (
	"time"

	"github.com/google/uuid"
)

// Connection type constants. The enum is closed: execution dispatches on it.
const (
	ConnectionPostgres = "postgres"
	ConnectionMySQL    = "mysql"
	ConnectionSQLite   = "sqlite"
)

// ValidConnectionTypes contains all supported external database types.
var ValidConnectionTypes = []string{ConnectionPostgres, ConnectionMySQL, ConnectionSQLite}

// IsValidConnectionType checks if the given type is supported.
func IsValidConnectionType(t string) bool {
	for _, v := range ValidConnectionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Connection is a saved pointer to an external database. The password is
// encrypted at rest by the service layer and never serialized in responses;
// the decrypted value only exists in memory at the point of dialing.
type Connection struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"` // postgres, mysql, sqlite
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Database  string    `json:"database"` // file path for sqlite
	Username  string    `json:"username"`
	Password  string    `json:"-"` // decrypted, in memory only
	SSL       bool      `json:"ssl"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
