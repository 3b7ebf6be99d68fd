package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sql-dojo/backend/internal/domain"
	"github.com/sql-dojo/backend/internal/infrastructure"
)

const recordTimeout = 5 * time.Second

// QueryService runs preview queries for participants
type QueryService struct {
	problemRepo  domain.ProblemRepository
	eventRepo    domain.EventRepository
	executor     domain.QueryExecutor
	solutions    domain.SolutionStore
	previewLimit int
	tracer       trace.Tracer
	logger       *zap.Logger

	pending sync.WaitGroup
}

// NewQueryService creates a new query service
func NewQueryService(
	problemRepo domain.ProblemRepository,
	eventRepo domain.EventRepository,
	executor domain.QueryExecutor,
	solutions domain.SolutionStore,
	sandboxConfig *infrastructure.SandboxConfig,
	tracer trace.Tracer,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		problemRepo:  problemRepo,
		eventRepo:    eventRepo,
		executor:     executor,
		solutions:    solutions,
		previewLimit: sandboxConfig.PreviewRowLimit,
		tracer:       tracer,
		logger:       logger,
	}
}

// ExecuteQuery runs the query against the problem database and returns the
// first rows. The run is logged to the activity feed in the background; a
// failed write never fails the request.
func (s *QueryService) ExecuteQuery(ctx context.Context, user *domain.User, problemID uuid.UUID, query string) (*domain.QueryResult, error) {
	ctx, span := s.tracer.Start(ctx, "QueryService.ExecuteQuery")
	defer span.End()

	span.SetAttributes(
		attribute.String("problem.id", problemID.String()),
		attribute.String("user.id", user.ID.String()),
	)

	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	problem, err := s.problemRepo.FindByID(ctx, problemID)
	if err != nil {
		return nil, err
	}

	var (
		rs              *domain.ResultSet
		solutionColumns []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rs, err = s.executor.Execute(gctx, problem.DBName, query, s.previewLimit)
		return err
	})
	g.Go(func() error {
		cols, err := s.solutions.Columns(gctx, problem.DBName)
		if err != nil {
			s.logger.Warn("Solution columns unavailable",
				zap.String("db_name", problem.DBName),
				zap.Error(err),
			)
			return nil
		}
		solutionColumns = cols
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.record(ctx, &domain.ProblemQuery{
		ProblemID: problem.ID,
		UserID:    user.ID,
		Query:     query,
		CreatedAt: time.Now(),
	})

	span.SetAttributes(attribute.Int("query.rows", rs.Count))
	return &domain.QueryResult{
		Rows:            rs.Rows,
		Columns:         rs.Columns,
		SolutionColumns: solutionColumns,
		Count:           rs.Count,
		Truncated:       rs.Truncated(),
	}, nil
}

// record stores the query without holding up the response
func (s *QueryService) record(ctx context.Context, q *domain.ProblemQuery) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		defer cancel()

		if err := s.eventRepo.CreateQuery(ctx, q); err != nil {
			s.logger.Error("Failed to record query",
				zap.String("problem_id", q.ProblemID.String()),
				zap.String("user_id", q.UserID.String()),
				infrastructure.QueryField(q.Query),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until background writes have finished
func (s *QueryService) Wait() {
	s.pending.Wait()
}
