// Package mysql implements the datasource adapter for MySQL using
// go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	vizsql "github.com/vizly-bi/vizly-engine/pkg/sql"
)

// Adapter talks to one MySQL database. Connections are opened per call.
type Adapter struct {
	dsn string
}

// New builds an adapter from a connection record and its decrypted password.
func New(conn *models.Connection, password string) (*Adapter, error) {
	if conn.Host == "" {
		return nil, fmt.Errorf("mysql connection requires a host")
	}

	port := conn.Port
	if port == 0 {
		port = 3306
	}

	cfg := gomysql.NewConfig()
	cfg.User = conn.Username
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = conn.Host + ":" + strconv.Itoa(port)
	cfg.DBName = conn.Database
	cfg.ParseTime = true
	cfg.Timeout = 10 * time.Second
	if conn.SSL {
		cfg.TLSConfig = "true"
	}

	return &Adapter{dsn: cfg.FormatDSN()}, nil
}

func (a *Adapter) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("mysql", a.dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// TestConnection dials the database and pings it.
func (a *Adapter) TestConnection(ctx context.Context) error {
	db, err := a.open(ctx)
	if err != nil {
		return err
	}
	return db.Close()
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

// Schema lists tables and columns in the connection's database.
func (a *Adapter) Schema(ctx context.Context) (*datasource.SchemaInfo, error) {
	db, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	const schemaQuery = `
SELECT table_name, column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = DATABASE()
ORDER BY table_name, ordinal_position`

	rows, err := db.QueryContext(ctx, schemaQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema: %w", err)
	}
	defer rows.Close()

	info := &datasource.SchemaInfo{Tables: []datasource.SchemaTable{}}
	tableIndex := make(map[string]int)

	for rows.Next() {
		var tableName, columnName, dataType, isNullable string
		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable); err != nil {
			return nil, fmt.Errorf("failed to scan schema row: %w", err)
		}

		idx, ok := tableIndex[tableName]
		if !ok {
			info.Tables = append(info.Tables, datasource.SchemaTable{Name: tableName})
			idx = len(info.Tables) - 1
			tableIndex[tableName] = idx
		}

		info.Tables[idx].Columns = append(info.Tables[idx].Columns, datasource.SchemaColumn{
			Name:     columnName,
			DataType: dataType,
			Nullable: isNullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schema rows: %w", err)
	}

	return info, nil
}

// PlaceholderStyle reports MySQL's ? placeholder syntax.
func (a *Adapter) PlaceholderStyle() vizsql.PlaceholderStyle {
	return vizsql.PlaceholderQuestion
}

// Close is a no-op; connections are opened and released per call.
func (a *Adapter) Close() error {
	return nil
}

var _ datasource.Adapter = (*Adapter)(nil)
