package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sql-dojo/backend/internal/domain"
)

// ProblemService handles problem lookups, opens and feedback
type ProblemService struct {
	problemRepo domain.ProblemRepository
	eventRepo   domain.EventRepository
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewProblemService creates a new problem service
func NewProblemService(
	problemRepo domain.ProblemRepository,
	eventRepo domain.EventRepository,
	tracer trace.Tracer,
	logger *zap.Logger,
) *ProblemService {
	return &ProblemService{
		problemRepo: problemRepo,
		eventRepo:   eventRepo,
		tracer:      tracer,
		logger:      logger,
	}
}

// GetProblem returns a specific problem
func (s *ProblemService) GetProblem(ctx context.Context, id uuid.UUID) (*domain.Problem, error) {
	ctx, span := s.tracer.Start(ctx, "ProblemService.GetProblem")
	defer span.End()

	span.SetAttributes(attribute.String("problem.id", id.String()))
	return s.problemRepo.FindByID(ctx, id)
}

// OpenProblem starts the user's clock on a problem. Repeated opens keep the
// first timestamp. After the competition has ended nothing is recorded and
// the returned open is nil.
func (s *ProblemService) OpenProblem(ctx context.Context, user *domain.User, problemID uuid.UUID) (*domain.ProblemOpen, error) {
	ctx, span := s.tracer.Start(ctx, "ProblemService.OpenProblem")
	defer span.End()

	span.SetAttributes(
		attribute.String("problem.id", problemID.String()),
		attribute.String("user.id", user.ID.String()),
	)

	problem, err := s.problemRepo.FindByID(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if problem.Competition.HasEnded(time.Now()) {
		span.SetAttributes(attribute.Bool("competition.ended", true))
		return nil, nil
	}

	open, err := s.eventRepo.UpsertOpen(ctx, &domain.ProblemOpen{
		ProblemID: problem.ID,
		UserID:    user.ID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Error("Failed to record problem open",
			zap.String("problem_id", problemID.String()),
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return open, nil
}

// SubmitFeedback stores a like or dislike for a problem
func (s *ProblemService) SubmitFeedback(ctx context.Context, user *domain.User, problemID uuid.UUID, liked bool) error {
	ctx, span := s.tracer.Start(ctx, "ProblemService.SubmitFeedback")
	defer span.End()

	span.SetAttributes(
		attribute.String("problem.id", problemID.String()),
		attribute.Bool("feedback.liked", liked),
	)

	if _, err := s.problemRepo.FindByID(ctx, problemID); err != nil {
		return err
	}

	err := s.eventRepo.CreateFeedback(ctx, &domain.ProblemFeedback{
		ProblemID: problemID,
		UserID:    user.ID,
		Liked:     liked,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Error("Failed to record feedback",
			zap.String("problem_id", problemID.String()),
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("Problem feedback recorded",
		zap.String("problem_id", problemID.String()),
		zap.String("user_id", user.ID.String()),
		zap.Bool("liked", liked),
	)
	return nil
}
