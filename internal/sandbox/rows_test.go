package sandbox

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRows struct {
	columns []string
	data    [][]interface{}
	pos     int
	scanned int
	err     error
}

func (f *fakeRows) Columns() ([]string, error) { return f.columns, nil }

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.data) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) SliceScan() ([]interface{}, error) {
	f.scanned++
	row := f.data[f.pos-1]
	out := make([]interface{}, len(row))
	copy(out, row)
	return out, nil
}

func (f *fakeRows) Err() error { return f.err }

func numberedRows(n int) [][]interface{} {
	data := make([][]interface{}, n)
	for i := range data {
		data[i] = []interface{}{int64(i), "row"}
	}
	return data
}

func TestCollect(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		limit     int
		wantRows  int
		wantCount int
		truncated bool
	}{
		{"under the limit", 3, 100, 3, 3, false},
		{"exactly the limit", 100, 100, 100, 100, false},
		{"over the limit", 250, 100, 100, 250, true},
		{"no limit", 250, 0, 250, 250, false},
		{"empty", 0, 100, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := &fakeRows{columns: []string{"id", "label"}, data: numberedRows(tt.rows)}

			result, err := collect(rows, tt.limit)
			require.NoError(t, err)

			assert.Equal(t, []string{"id", "label"}, result.Columns)
			assert.Len(t, result.Rows, tt.wantRows)
			assert.Equal(t, tt.wantCount, result.Count)
			assert.Equal(t, tt.truncated, result.Truncated())
			assert.NotNil(t, result.Rows)
			assert.Equal(t, tt.wantRows, rows.scanned, "rows past the limit are not scanned")
		})
	}
}

func TestCollectKeepsFirstRowsInOrder(t *testing.T) {
	rows := &fakeRows{columns: []string{"id", "label"}, data: numberedRows(5)}

	result, err := collect(rows, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(0), "row"}, {int64(1), "row"}}, result.Rows)
}

func TestCollectPropagatesIterationError(t *testing.T) {
	rows := &fakeRows{columns: []string{"id"}, err: errors.New("connection reset")}

	_, err := collect(rows, 10)
	assert.EqualError(t, err, "connection reset")
}

func TestNormalizeCell(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "abc", "abc"},
		{"int", int64(7), int64(7)},
		{"float", 1.5, 1.5},
		{"nan", math.NaN(), "NaN"},
		{"positive infinity", math.Inf(1), "Infinity"},
		{"negative infinity", float32(math.Inf(-1)), "-Infinity"},
		{"bytes", []byte{0xde, 0xad}, `\xdead`},
		{"time", ts, ts},
		{"bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeCell(tt.in))
		})
	}
}

func TestSelectSolution(t *testing.T) {
	assert.Equal(t, `SELECT * FROM "solutions"."employees"`, selectSolution("solutions", "employees", false))
	assert.Equal(t, `SELECT * FROM "solutions"."employees" ORDER BY "sort_id" ASC`, selectSolution("solutions", "employees", true))
	assert.Equal(t, `SELECT * FROM "solutions"."x"";drop table users;--"`, selectSolution("solutions", `x";drop table users;--`, false))
}
