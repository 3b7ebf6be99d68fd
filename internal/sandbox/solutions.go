package sandbox

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sql-dojo/backend/internal/domain"
	"github.com/sql-dojo/backend/internal/infrastructure"
)

const columnsQuery = `SELECT column_name
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

// SolutionStore reads expected results from the solutions schema. Each
// problem's solution table is named after its database.
type SolutionStore struct {
	db     *sqlx.DB
	schema string
	logger *zap.Logger
}

// NewSolutionStore connects to the solutions database
func NewSolutionStore(ctx context.Context, config *infrastructure.SolutionsConfig, logger *zap.Logger) (*SolutionStore, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to solutions database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	logger.Info("Solutions database connection established",
		zap.String("host", config.Host),
		zap.String("database", config.DBName),
		zap.String("schema", config.Schema),
	)
	return &SolutionStore{db: db, schema: config.Schema, logger: logger}, nil
}

var _ domain.SolutionStore = (*SolutionStore)(nil)

// Columns returns the compared columns of a solution table
func (s *SolutionStore) Columns(ctx context.Context, dbName string) ([]string, error) {
	all, err := s.tableColumns(ctx, dbName)
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(all))
	for _, c := range all {
		if c != domain.SortColumn {
			columns = append(columns, c)
		}
	}
	return columns, nil
}

// Fetch reads the whole solution table, in sort_id order when it has one
func (s *SolutionStore) Fetch(ctx context.Context, dbName string) (*domain.Solution, error) {
	all, err := s.tableColumns(ctx, dbName)
	if err != nil {
		return nil, err
	}
	hasSort := false
	for _, c := range all {
		if c == domain.SortColumn {
			hasSort = true
			break
		}
	}

	rows, err := s.db.QueryxContext(ctx, selectSolution(s.schema, dbName, hasSort))
	if err != nil {
		return nil, fmt.Errorf("query solution %s: %w", dbName, err)
	}
	defer rows.Close()

	result, err := collect(rows, 0)
	if err != nil {
		return nil, fmt.Errorf("read solution %s: %w", dbName, err)
	}
	return &domain.Solution{ResultSet: *result, HasSortColumn: hasSort}, nil
}

// Close closes the connection pool
func (s *SolutionStore) Close() error {
	return s.db.Close()
}

// Ping checks the solutions database is reachable
func (s *SolutionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SolutionStore) tableColumns(ctx context.Context, dbName string) ([]string, error) {
	var columns []string
	if err := s.db.SelectContext(ctx, &columns, columnsQuery, s.schema, dbName); err != nil {
		return nil, fmt.Errorf("list solution columns for %s: %w", dbName, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no table %s.%s", domain.ErrSolutionUnavailable, s.schema, dbName)
	}
	return columns, nil
}

// selectSolution builds the solution query. Names are quoted identifiers, never values.
func selectSolution(schema, table string, ordered bool) string {
	query := "SELECT * FROM " + pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
	if ordered {
		query += " ORDER BY " + pq.QuoteIdentifier(domain.SortColumn) + " ASC"
	}
	return query
}
