package postgres

import (
	"context"
	"fmt"

	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
)

const schemaQuery = `
SELECT table_name, column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`

// Schema lists tables and columns in the public schema.
func (a *Adapter) Schema(ctx context.Context) (*datasource.SchemaInfo, error) {
	conn, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, schemaQuery)
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
