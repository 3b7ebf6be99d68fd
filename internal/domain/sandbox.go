package domain

import "context"

// SortColumn is the reserved column of a solution table that fixes the
// expected row order. It is never compared.
const SortColumn = "sort_id"

// ResultSet is a tabular query result with rows in column order.
// Count is the total number of rows produced, which can exceed len(Rows)
// when the result was truncated.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Count   int      `json:"count"`
}

// Truncated reports whether rows were dropped
func (r *ResultSet) Truncated() bool {
	return r.Count > len(r.Rows)
}

// Solution is the expected result of a problem
type Solution struct {
	ResultSet
	HasSortColumn bool
}

// QueryExecutor runs participant SQL against a problem database.
// A limit of zero or less keeps every row.
// Failures caused by the SQL itself are returned as *QueryError.
type QueryExecutor interface {
	Execute(ctx context.Context, dbName, query string, limit int) (*ResultSet, error)
}

// SolutionStore reads reference results
type SolutionStore interface {
	Fetch(ctx context.Context, dbName string) (*Solution, error)
	// Columns lists the compared columns of the solution, in table order
	Columns(ctx context.Context, dbName string) ([]string, error)
}

// QueryResult is the preview returned to a participant
type QueryResult struct {
	Rows            [][]any  `json:"rows"`
	Columns         []string `json:"columns"`
	SolutionColumns []string `json:"solution_columns,omitempty"`
	Count           int      `json:"count"`
	Truncated       bool     `json:"truncated"`
}

// VerifyResult is the outcome of judging a submission
type VerifyResult struct {
	Correct  bool `json:"correct"`
	Recorded bool `json:"recorded"`
}
