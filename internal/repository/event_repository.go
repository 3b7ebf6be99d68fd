package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sql-dojo/backend/internal/domain"
)

// eventRepository implements domain.EventRepository using GORM
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) domain.EventRepository {
	return &eventRepository{db: db}
}

// UpsertOpen records the first open of a problem by a user. A second call
// keeps the original timestamp.
func (r *eventRepository) UpsertOpen(ctx context.Context, open *domain.ProblemOpen) (*domain.ProblemOpen, error) {
	db := r.db.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "problem_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(open).Error
	if err != nil {
		return nil, fmt.Errorf("insert problem open: %w", err)
	}

	var stored domain.ProblemOpen
	err = db.Where("problem_id = ? AND user_id = ?", open.ProblemID, open.UserID).
		First(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("load problem open: %w", err)
	}
	return &stored, nil
}

// CreateQuery records a preview execution
func (r *eventRepository) CreateQuery(ctx context.Context, query *domain.ProblemQuery) error {
	return r.db.WithContext(ctx).Create(query).Error
}

// CreateSubmission records a verified answer
func (r *eventRepository) CreateSubmission(ctx context.Context, submission *domain.ProblemSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// CreateFeedback records a like or dislike
func (r *eventRepository) CreateFeedback(ctx context.Context, feedback *domain.ProblemFeedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

// FindOpens returns the opens of a competition
func (r *eventRepository) FindOpens(ctx context.Context, filter domain.EventFilter) ([]domain.ProblemOpen, error) {
	var opens []domain.ProblemOpen
	result := r.scoped(ctx, filter).Find(&opens)
	return opens, result.Error
}

// FindQueries returns the preview executions of a competition
func (r *eventRepository) FindQueries(ctx context.Context, filter domain.EventFilter) ([]domain.ProblemQuery, error) {
	var queries []domain.ProblemQuery
	result := r.scoped(ctx, filter).Find(&queries)
	return queries, result.Error
}

// FindSubmissions returns the submissions of a competition
func (r *eventRepository) FindSubmissions(ctx context.Context, filter domain.EventFilter) ([]domain.ProblemSubmission, error) {
	var submissions []domain.ProblemSubmission
	result := r.scoped(ctx, filter).Find(&submissions)
	return submissions, result.Error
}

// FindAssists returns the AI assistant prompts of a competition
func (r *eventRepository) FindAssists(ctx context.Context, filter domain.EventFilter) ([]domain.AssistPrompt, error) {
	var assists []domain.AssistPrompt
	result := r.scoped(ctx, filter).Find(&assists)
	return assists, result.Error
}

// scoped restricts an event query to the filter, oldest first, with the problem preloaded
func (r *eventRepository) scoped(ctx context.Context, filter domain.EventFilter) *gorm.DB {
	db := r.db.WithContext(ctx)
	q := db.Preload("Problem").
		Where("problem_id IN (?)", competitionProblems(db, filter.CompetitionID))
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	return q.Order("created_at ASC")
}
