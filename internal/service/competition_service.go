package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sql-dojo/backend/internal/domain"
)

// CompetitionService handles competition lookups
type CompetitionService struct {
	competitionRepo domain.CompetitionRepository
	tracer          trace.Tracer
	logger          *zap.Logger
}

// NewCompetitionService creates a new competition service
func NewCompetitionService(
	competitionRepo domain.CompetitionRepository,
	tracer trace.Tracer,
	logger *zap.Logger,
) *CompetitionService {
	return &CompetitionService{
		competitionRepo: competitionRepo,
		tracer:          tracer,
		logger:          logger,
	}
}

// ListCompetitions returns every competition
func (s *CompetitionService) ListCompetitions(ctx context.Context) ([]domain.Competition, error) {
	ctx, span := s.tracer.Start(ctx, "CompetitionService.ListCompetitions")
	defer span.End()

	return s.competitionRepo.FindAll(ctx)
}

// GetCompetition returns a competition with its problems
func (s *CompetitionService) GetCompetition(ctx context.Context, id uuid.UUID) (*domain.Competition, error) {
	ctx, span := s.tracer.Start(ctx, "CompetitionService.GetCompetition")
	defer span.End()

	span.SetAttributes(attribute.String("competition.id", id.String()))
	return s.competitionRepo.FindByIDWithProblems(ctx, id)
}
