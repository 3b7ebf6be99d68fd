package sandbox

import (
	"encoding/hex"
	"math"

	"github.com/sql-dojo/backend/internal/domain"
)

// rowScanner is the part of *sqlx.Rows that collect needs
type rowScanner interface {
	Columns() ([]string, error)
	Next() bool
	SliceScan() ([]interface{}, error)
	Err() error
}

// collect drains rows into a positional result set. Once limit rows are
// kept the remaining rows are only counted. A limit of zero or less keeps all.
func collect(rows rowScanner, limit int) (*domain.ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &domain.ResultSet{
		Columns: columns,
		Rows:    make([][]any, 0),
	}
	for rows.Next() {
		result.Count++
		if limit > 0 && len(result.Rows) >= limit {
			continue
		}

		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			values[i] = normalizeCell(v)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeCell rewrites driver values that cannot be sent as JSON
func normalizeCell(v any) any {
	switch value := v.(type) {
	case []byte:
		return `\x` + hex.EncodeToString(value)
	case float64:
		return normalizeFloat(value)
	case float32:
		return normalizeFloat(float64(value))
	default:
		return v
	}
}

func normalizeFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}
