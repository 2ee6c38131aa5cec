// Package sqlite implements the datasource adapter for SQLite files using
// the modernc.org/sqlite driver (no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	vizsql "github.com/vizly-bi/vizly-engine/pkg/sql"
)

// Adapter talks to one SQLite database file. The connection's database field
// holds the file path.
type Adapter struct {
	path string
}

// New builds an adapter from a connection record. SQLite has no credentials;
// the password argument is accepted for factory symmetry and ignored.
func New(conn *models.Connection, _ string) (*Adapter, error) {
	if conn.Database == "" {
		return nil, fmt.Errorf("sqlite connection requires a file path")
	}
	return &Adapter{path: conn.Database}, nil
}

func (a *Adapter) open(ctx context.Context) (*sql.DB, error) {
	// The driver creates missing files on open, which would make a typo'd
	// path look like a valid empty database. Require the file to exist.
	if _, err := os.Stat(a.path); err != nil {
		return nil, fmt.Errorf("sqlite database file: %w", err)
	}

	db, err := sql.Open("sqlite", a.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// TestConnection verifies the file exists and is a readable SQLite database.
func (a *Adapter) TestConnection(ctx context.Context) error {
	db, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("sqlite test query: %w", err)
	}
	return nil
}

// Execute runs a single statement with ?-bound arguments and returns at
// most maxRows rows.
func (a *Adapter) Execute(ctx context.Context, query string, args []any, maxRows int) (*datasource.QueryResult, error) {
	db, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	return datasource.ScanRows(rows, maxRows)
}

// Schema lists tables and columns via sqlite_master and PRAGMA table_info.
func (a *Adapter) Schema(ctx context.Context) (*datasource.SchemaInfo, error) {
	db, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tableRows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer tableRows.Close()

	var tableNames []string
	for tableRows.Next() {
		var name string
		if err := tableRows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tableNames = append(tableNames, name)
	}
	if err := tableRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	info := &datasource.SchemaInfo{Tables: []datasource.SchemaTable{}}
	for _, tableName := range tableNames {
		columns, err := a.tableColumns(ctx, db, tableName)
		if err != nil {
			return nil, err
		}
		info.Tables = append(info.Tables, datasource.SchemaTable{Name: tableName, Columns: columns})
	}

	return info, nil
}

func (a *Adapter) tableColumns(ctx context.Context, db *sql.DB, tableName string) ([]datasource.SchemaColumn, error) {
	// PRAGMA table_info does not support bound parameters; the table name
	// comes from sqlite_master, not user input.
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns for %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []datasource.SchemaColumn
	for rows.Next() {
		var (
			cid        int
			name       string
			dataType   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column for %s: %w", tableName, err)
		}
		columns = append(columns, datasource.SchemaColumn{
			Name:     name,
			DataType: dataType,
			Nullable: notNull == 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns for %s: %w", tableName, err)
	}

	return columns, nil
}

// PlaceholderStyle reports SQLite's ? placeholder syntax.
func (a *Adapter) PlaceholderStyle() vizsql.PlaceholderStyle {
	return vizsql.PlaceholderQuestion
}

// Close is a no-op; connections are opened and released per call.
func (a *Adapter) Close() error {
	return nil
}

var _ datasource.Adapter = (*Adapter)(nil)
