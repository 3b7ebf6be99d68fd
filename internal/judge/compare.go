// Package judge decides whether a participant's result set matches the
// expected result of a problem.
//
// Cells are compared as strings, case-insensitively. When the expected
// result is ordered (its first row carries a non-null sort_id) rows are
// compared position by position; otherwise both sides are compared as
// multisets of rows.
package judge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sql-dojo/backend/internal/domain"
)

// Reason explains an incorrect verdict
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonRowCount      Reason = "row count differs"
	ReasonMissingColumn Reason = "expected column missing"
	ReasonCellMismatch  Reason = "cell differs"
	ReasonRowsMismatch  Reason = "rows differ"
)

// Verdict is the outcome of a comparison
type Verdict struct {
	Correct bool
	Ordered bool
	Reason  Reason
	// Column is set for ReasonMissingColumn and ReasonCellMismatch
	Column string
	// Row is the zero-based row index for ReasonCellMismatch
	Row int
}

// Compare judges actual against expected
func Compare(actual *domain.ResultSet, expected *domain.Solution) Verdict {
	ordered := IsOrdered(expected)
	if len(actual.Rows) != len(expected.Rows) {
		return Verdict{Ordered: ordered, Reason: ReasonRowCount}
	}
	if len(expected.Rows) == 0 {
		return Verdict{Correct: true}
	}

	checked := CheckedColumns(expected.Columns)
	expectedIdx := columnIndex(expected.Columns)
	actualIdx := columnIndex(actual.Columns)
	for _, c := range checked {
		if _, ok := actualIdx[c]; !ok {
			return Verdict{Ordered: ordered, Reason: ReasonMissingColumn, Column: c}
		}
	}

	if ordered {
		for i := range expected.Rows {
			for _, c := range checked {
				want := CellString(expected.Rows[i][expectedIdx[c]])
				got := CellString(actual.Rows[i][actualIdx[c]])
				if !strings.EqualFold(want, got) {
					return Verdict{Ordered: true, Reason: ReasonCellMismatch, Column: c, Row: i}
				}
			}
		}
		return Verdict{Correct: true, Ordered: true}
	}

	want := canonicalRows(expected.Rows, checked, expectedIdx)
	got := canonicalRows(actual.Rows, checked, actualIdx)
	if want != got {
		return Verdict{Reason: ReasonRowsMismatch}
	}
	return Verdict{Correct: true}
}

// IsOrdered reports whether row order matters for the expected result.
// Only the first row's sort_id is inspected.
func IsOrdered(expected *domain.Solution) bool {
	if !expected.HasSortColumn || len(expected.Rows) == 0 {
		return false
	}
	idx, ok := columnIndex(expected.Columns)[domain.SortColumn]
	if !ok {
		return false
	}
	return expected.Rows[0][idx] != nil
}

// CheckedColumns returns the expected columns that take part in the comparison
func CheckedColumns(columns []string) []string {
	checked := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != domain.SortColumn {
			checked = append(checked, c)
		}
	}
	return checked
}

// columnIndex maps names to positions. A repeated name maps to its last position.
func columnIndex(columns []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c] = i
	}
	return idx
}

// canonicalRows renders rows as sorted, lowercased, tab separated lines
func canonicalRows(rows [][]any, columns []string, idx map[string]int) string {
	lines := make([]string, len(rows))
	cells := make([]string, len(columns))
	for i, row := range rows {
		for j, c := range columns {
			cells[j] = CellString(row[idx[c]])
		}
		lines[i] = strings.ToLower(strings.Join(cells, "\t"))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// CellString renders a cell value the way it is compared
func CellString(v any) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case string:
		return value
	case []byte:
		return string(value)
	case bool:
		return strconv.FormatBool(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case int32:
		return strconv.FormatInt(int64(value), 10)
	case int:
		return strconv.Itoa(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case time.Time:
		return value.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}
