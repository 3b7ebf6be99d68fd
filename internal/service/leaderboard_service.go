package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sql-dojo/backend/internal/domain"
	"github.com/sql-dojo/backend/internal/scoring"
)

// LeaderboardService loads a competition's activity and ranks its participants
type LeaderboardService struct {
	competitionRepo domain.CompetitionRepository
	userRepo        domain.UserRepository
	eventRepo       domain.EventRepository
	aggregator      *scoring.Aggregator
	tracer          trace.Tracer
	logger          *zap.Logger
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(
	competitionRepo domain.CompetitionRepository,
	userRepo domain.UserRepository,
	eventRepo domain.EventRepository,
	aggregator *scoring.Aggregator,
	tracer trace.Tracer,
	logger *zap.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		competitionRepo: competitionRepo,
		userRepo:        userRepo,
		eventRepo:       eventRepo,
		aggregator:      aggregator,
		tracer:          tracer,
		logger:          logger,
	}
}

// GetLeaderboard computes the standings of a competition. With selfOnly the
// ranking holds just the caller's row. The feed is only built for admins.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, user *domain.User, competitionID uuid.UUID, selfOnly bool) (*domain.LeaderboardResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LeaderboardService.GetLeaderboard")
	defer span.End()

	span.SetAttributes(
		attribute.String("competition.id", competitionID.String()),
		attribute.Bool("leaderboard.self", selfOnly),
		attribute.Bool("leaderboard.feed", user.IsAdmin),
	)

	if _, err := s.competitionRepo.FindByID(ctx, competitionID); err != nil {
		return nil, err
	}

	filter := domain.EventFilter{CompetitionID: competitionID}
	if selfOnly {
		filter.UserID = &user.ID
	}

	in := scoring.Input{IncludeFeed: user.IsAdmin}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if selfOnly {
			in.Participants = []domain.User{*user}
			return nil
		}
		var err error
		in.Participants, err = s.userRepo.FindParticipants(gctx, competitionID)
		return err
	})
	g.Go(func() error {
		var err error
		in.Opens, err = s.eventRepo.FindOpens(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		in.Submissions, err = s.eventRepo.FindSubmissions(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		in.Assists, err = s.eventRepo.FindAssists(gctx, filter)
		return err
	})
	if user.IsAdmin {
		g.Go(func() error {
			var err error
			in.Queries, err = s.eventRepo.FindQueries(gctx, filter)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		s.logger.Error("Failed to load competition activity",
			zap.String("competition_id", competitionID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	resp := s.aggregator.Aggregate(in)
	span.SetAttributes(attribute.Int("leaderboard.rows", len(resp.Ranking)))
	return &resp, nil
}
