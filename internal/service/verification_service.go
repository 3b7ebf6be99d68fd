package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sql-dojo/backend/internal/domain"
	"github.com/sql-dojo/backend/internal/infrastructure"
	"github.com/sql-dojo/backend/internal/judge"
)

// VerificationService judges submitted answers and records them while the
// competition is live
type VerificationService struct {
	problemRepo domain.ProblemRepository
	eventRepo   domain.EventRepository
	executor    domain.QueryExecutor
	solutions   domain.SolutionStore
	metrics     *infrastructure.TelemetryMetrics
	tracer      trace.Tracer
	logger      *zap.Logger
	now         func() time.Time
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	problemRepo domain.ProblemRepository,
	eventRepo domain.EventRepository,
	executor domain.QueryExecutor,
	solutions domain.SolutionStore,
	metrics *infrastructure.TelemetryMetrics,
	tracer trace.Tracer,
	logger *zap.Logger,
) *VerificationService {
	return &VerificationService{
		problemRepo: problemRepo,
		eventRepo:   eventRepo,
		executor:    executor,
		solutions:   solutions,
		metrics:     metrics,
		tracer:      tracer,
		logger:      logger,
		now:         time.Now,
	}
}

// VerifyAnswer runs the full query, compares it with the reference solution
// and stores the submission unless the competition is over.
// SQL failures come back as *domain.QueryError and are not recorded.
func (s *VerificationService) VerifyAnswer(ctx context.Context, user *domain.User, problemID uuid.UUID, query string) (*domain.VerifyResult, error) {
	ctx, span := s.tracer.Start(ctx, "VerificationService.VerifyAnswer")
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
		actual   *domain.ResultSet
		expected *domain.Solution
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		actual, err = s.executor.Execute(gctx, problem.DBName, query, 0)
		return err
	})
	g.Go(func() error {
		var err error
		expected, err = s.solutions.Fetch(gctx, problem.DBName)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrSolutionUnavailable, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		if _, ok := domain.AsQueryError(err); ok {
			s.countVerdict(ctx, "error")
			return nil, err
		}
		s.logger.Error("Reference solution unavailable",
			zap.String("problem_id", problem.ID.String()),
			zap.String("db_name", problem.DBName),
			zap.Error(err),
		)
		return nil, err
	}

	verdict := judge.Compare(actual, expected)
	span.SetAttributes(
		attribute.Bool("verdict.correct", verdict.Correct),
		attribute.Bool("verdict.ordered", verdict.Ordered),
		attribute.String("verdict.reason", string(verdict.Reason)),
	)

	result := &domain.VerifyResult{Correct: verdict.Correct}
	if verdict.Correct {
		s.countVerdict(ctx, "correct")
	} else {
		s.countVerdict(ctx, "incorrect")
	}

	if problem.Competition.HasEnded(s.now()) {
		s.logger.Debug("Competition ended, submission not recorded",
			zap.String("problem_id", problem.ID.String()),
			zap.String("user_id", user.ID.String()),
		)
		return result, nil
	}

	err = s.eventRepo.CreateSubmission(ctx, &domain.ProblemSubmission{
		ProblemID: problem.ID,
		UserID:    user.ID,
		Query:     query,
		Correct:   verdict.Correct,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.logger.Error("Failed to record submission",
			zap.String("problem_id", problem.ID.String()),
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	result.Recorded = true

	if verdict.Correct {
		s.metrics.ProblemsSolved.Add(ctx, 1)
	}

	s.logger.Info("Submission recorded",
		zap.String("problem_id", problem.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.Bool("correct", verdict.Correct),
		zap.String("reason", string(verdict.Reason)),
	)
	return result, nil
}

func (s *VerificationService) countVerdict(ctx context.Context, verdict string) {
	s.metrics.Verifications.Add(ctx, 1, metric.WithAttributes(attribute.String("verdict", verdict)))
}
