package datasource

import (
	"database/sql"
	"time"
)

// ScanRows drains a database/sql result set into a QueryResult, stopping at
// maxRows. Shared by the mysql and sqlite adapters; the postgres adapter
// scans pgx rows directly.
func ScanRows(rows *sql.Rows, maxRows int) (*QueryResult, error) {
	if maxRows <= 0 {
		maxRows = MaxQueryRows
	}

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	columns := make([]ColumnInfo, len(columnNames))
	for i, name := range columnNames {
		dataType := "unknown"
		if columnTypes[i] != nil && columnTypes[i].DatabaseTypeName() != "" {
			dataType = columnTypes[i].DatabaseTypeName()
		}
		columns[i] = ColumnInfo{Name: name, DataType: dataType}
	}

	result := &QueryResult{
		Columns: columns,
		Rows:    []map[string]any{},
	}

	values := make([]any, len(columnNames))
	valuePtrs := make([]any, len(columnNames))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columnNames))
		for i, name := range columnNames {
			row[name] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// normalizeValue coerces driver-specific values into JSON-friendly ones.
// MySQL and SQLite drivers hand back []byte for text columns.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC()
	default:
		return v
	}
}
