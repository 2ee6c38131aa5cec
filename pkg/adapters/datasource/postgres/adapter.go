// Package postgres implements the datasource adapter for PostgreSQL using pgx.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	vizsql "github.com/vizly-bi/vizly-engine/pkg/sql"
)

// Adapter talks to one PostgreSQL database. Connections are opened per call
// so a cancelled context aborts the dial as well as the query.
type Adapter struct {
	dsn string
}

// New builds an adapter from a connection record and its decrypted password.
func New(conn *models.Connection, password string) (*Adapter, error) {
	if conn.Host == "" {
		return nil, fmt.Errorf("postgres connection requires a host")
	}

	port := conn.Port
	if port == 0 {
		port = 5432
	}

	sslMode := "disable"
	if conn.SSL {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conn.Username, password),
		Host:     conn.Host + ":" + strconv.Itoa(port),
		Path:     "/" + conn.Database,
		RawQuery: "sslmode=" + sslMode,
	}

	return &Adapter{dsn: u.String()}, nil
}

func (a *Adapter) connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, a.dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return conn, nil
}

// TestConnection dials the database and pings it.
func (a *Adapter) TestConnection(ctx context.Context) error {
	conn, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Execute runs a single statement with $N-bound arguments and returns at
// most maxRows rows.
func (a *Adapter) Execute(ctx context.Context, query string, args []any, maxRows int) (*datasource.QueryResult, error) {
	if maxRows <= 0 {
		maxRows = datasource.MaxQueryRows
	}

	conn, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]datasource.ColumnInfo, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = datasource.ColumnInfo{
			Name:     string(fd.Name),
			DataType: pgTypeNameFromOID(fd.DataTypeOID),
		}
	}

	result := &datasource.QueryResult{
		Columns: columns,
		Rows:    []map[string]any{},
	}

	for rows.Next() {
		if len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}

		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col.Name] = values[i]
		}
		result.Rows = append(result.Rows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// PlaceholderStyle reports PostgreSQL's $N placeholder syntax.
func (a *Adapter) PlaceholderStyle() vizsql.PlaceholderStyle {
	return vizsql.PlaceholderDollar
}

// Close is a no-op; connections are opened and released per call.
func (a *Adapter) Close() error {
	return nil
}

// pgTypeNameFromOID maps PostgreSQL type OIDs to human-readable type names.
// This covers the most common types; unknown types return "UNKNOWN".
func pgTypeNameFromOID(oid uint32) string {
	switch oid {
	case 16:
		return "BOOL"
	case 17:
		return "BYTEA"
	case 18:
		return "CHAR"
	case 20:
		return "INT8"
	case 21:
		return "INT2"
	case 23:
		return "INT4"
	case 25:
		return "TEXT"
	case 114:
		return "JSON"
	case 700:
		return "FLOAT4"
	case 701:
		return "FLOAT8"
	case 790:
		return "MONEY"
	case 1042:
		return "BPCHAR"
	case 1043:
		return "VARCHAR"
	case 1082:
		return "DATE"
	case 1083:
		return "TIME"
	case 1114:
		return "TIMESTAMP"
	case 1184:
		return "TIMESTAMPTZ"
	case 1186:
		return "INTERVAL"
	case 1266:
		return "TIMETZ"
	case 1700:
		return "NUMERIC"
	case 2950:
		return "UUID"
	case 3802:
		return "JSONB"
	case 1000:
		return "BOOL[]"
	case 1005:
		return "INT2[]"
	case 1007:
		return "INT4[]"
	case 1016:
		return "INT8[]"
	case 1009:
		return "TEXT[]"
	case 1015:
		return "VARCHAR[]"
	case 1021:
		return "FLOAT4[]"
	case 1022:
		return "FLOAT8[]"
	case 2951:
		return "UUID[]"
	case 3807:
		return "JSONB[]"
	default:
		return "UNKNOWN"
	}
}

var _ datasource.Adapter = (*Adapter)(nil)
