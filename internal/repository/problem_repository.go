package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sql-dojo/backend/internal/domain"
)

// problemRepository implements domain.ProblemRepository using GORM
type problemRepository struct {
	db *gorm.DB
}

// NewProblemRepository creates a new problem repository
func NewProblemRepository(db *gorm.DB) domain.ProblemRepository {
	return &problemRepository{db: db}
}

// FindByID finds a problem by its ID along with its competition
func (r *problemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Problem, error) {
	var problem domain.Problem
	result := r.db.WithContext(ctx).
		Preload("Competition").
		Where("id = ?", id).
		First(&problem)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProblemNotFound
		}
		return nil, result.Error
	}
	if problem.Competition == nil {
		return nil, domain.ErrCompetitionNotFound
	}
	return &problem, nil
}

// FindByCompetition returns the problems of a competition
func (r *problemRepository) FindByCompetition(ctx context.Context, competitionID uuid.UUID) ([]domain.Problem, error) {
	var problems []domain.Problem
	result := r.db.WithContext(ctx).
		Where("competition_id = ?", competitionID).
		Order("name ASC").
		Find(&problems)
	return problems, result.Error
}
