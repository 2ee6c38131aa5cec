// Package datasource defines the adapter contract for executing SQL against
// user-registered external databases, with per-dialect implementations in
// subpackages.
package datasource

import (
	"context"

	vizsql "github.com/vizly-bi/vizly-engine/pkg/sql"
)

// MaxQueryRows is the default cap on rows returned from a single execution.
// Results are truncated at this limit rather than rejected.
const MaxQueryRows = 1000

// ColumnInfo describes one column of a result set.
type ColumnInfo struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// QueryResult is the outcome of executing SQL against an external database.
type QueryResult struct {
	Columns   []ColumnInfo     `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Truncated bool             `json:"truncated"`
}

// SchemaColumn describes one column of a table in the external database.
type SchemaColumn struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
}

// SchemaTable describes one table and its columns.
type SchemaTable struct {
	Name    string         `json:"name"`
	Columns []SchemaColumn `json:"columns"`
}

// SchemaInfo is the table/column inventory of an external database.
type SchemaInfo struct {
	Tables []SchemaTable `json:"tables"`
}

// Adapter is the per-dialect contract for talking to an external database.
// Implementations open connections lazily per call and honor context
// cancellation for both dialing and query execution.
type Adapter interface {
	// TestConnection dials the database and verifies it responds.
	TestConnection(ctx context.Context) error

	// Execute runs a single prepared statement with bound arguments and
	// returns at most maxRows rows. maxRows <= 0 falls back to MaxQueryRows.
	Execute(ctx context.Context, query string, args []any, maxRows int) (*QueryResult, error)

	// Schema lists tables and columns visible to the connection's user.
	Schema(ctx context.Context) (*SchemaInfo, error)

	// PlaceholderStyle reports the positional placeholder syntax the dialect
	// expects, for template substitution.
	PlaceholderStyle() vizsql.PlaceholderStyle

	// Close releases any held resources.
	Close() error
}
