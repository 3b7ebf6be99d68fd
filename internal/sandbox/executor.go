package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/sql-dojo/backend/internal/domain"
	"github.com/sql-dojo/backend/internal/infrastructure"
)

// driverName is registered by the pgx stdlib package
const driverName = "pgx"

// connectGrace is added on top of the statement timeout to cover connection setup
const connectGrace = time.Second

// Executor runs participant SQL as the restricted contestant role. Every call
// gets its own connection to the problem database and closes it before returning.
type Executor struct {
	config  *infrastructure.SandboxConfig
	metrics *infrastructure.TelemetryMetrics
	logger  *zap.Logger
	connect func(ctx context.Context, dsn string) (*sqlx.DB, error)
}

// NewExecutor creates a sandbox executor
func NewExecutor(config *infrastructure.SandboxConfig, metrics *infrastructure.TelemetryMetrics, logger *zap.Logger) *Executor {
	return &Executor{
		config:  config,
		metrics: metrics,
		logger:  logger,
		connect: func(ctx context.Context, dsn string) (*sqlx.DB, error) {
			return sqlx.ConnectContext(ctx, driverName, dsn)
		},
	}
}

var _ domain.QueryExecutor = (*Executor)(nil)

// Execute runs query against dbName and returns at most limit rows together
// with the full row count. Every failure is reported as *domain.QueryError.
func (e *Executor) Execute(ctx context.Context, dbName, query string, limit int) (result *domain.ResultSet, err error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if strings.TrimSpace(dbName) == "" {
		return nil, &domain.QueryError{Message: "problem has no database configured"}
	}

	operation := "preview"
	if limit <= 0 {
		operation = "verify"
	}
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.metrics.SandboxDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(
				attribute.String("operation", operation),
				attribute.String("outcome", outcome),
			),
		)
	}()

	ctx, cancel := context.WithTimeout(ctx, e.config.StatementTimeout+connectGrace)
	defer cancel()

	db, err := e.connect(ctx, e.config.DSN(dbName))
	if err != nil {
		return nil, e.queryError(ctx, dbName, err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			e.logger.Warn("Failed to close sandbox connection",
				zap.String("database", dbName),
				zap.Error(cerr),
			)
		}
	}()
	db.SetMaxOpenConns(1)

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, e.queryError(ctx, dbName, err)
	}
	defer rows.Close()

	result, err = collect(rows, limit)
	if err != nil {
		return nil, e.queryError(ctx, dbName, err)
	}
	return result, nil
}

// queryError converts a driver failure into the message shown to the participant
func (e *Executor) queryError(ctx context.Context, dbName string, err error) *domain.QueryError {
	qe := &domain.QueryError{Message: err.Error(), Err: err}

	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		qe.Message = pgErr.Message
		qe.SQLState = pgErr.Code
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		qe.Message = fmt.Sprintf("query exceeded the %s time limit", e.config.StatementTimeout)
	case errors.Is(err, context.Canceled):
		qe.Message = "query was cancelled"
	}

	e.logger.Debug("Sandbox query failed",
		zap.String("database", dbName),
		zap.String("sqlstate", qe.SQLState),
		zap.Error(err),
	)
	return qe
}
