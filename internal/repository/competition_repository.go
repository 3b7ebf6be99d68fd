package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sql-dojo/backend/internal/domain"
)

// competitionRepository implements domain.CompetitionRepository using GORM
type competitionRepository struct {
	db *gorm.DB
}

// NewCompetitionRepository creates a new competition repository
func NewCompetitionRepository(db *gorm.DB) domain.CompetitionRepository {
	return &competitionRepository{db: db}
}

// Create inserts a competition together with its problems
func (r *competitionRepository) Create(ctx context.Context, competition *domain.Competition) error {
	return r.db.WithContext(ctx).Create(competition).Error
}

// FindAll returns every competition, most recent first
func (r *competitionRepository) FindAll(ctx context.Context) ([]domain.Competition, error) {
	var competitions []domain.Competition
	result := r.db.WithContext(ctx).Order("start_date DESC").Find(&competitions)
	return competitions, result.Error
}

// FindByID finds a competition by its ID (without problems)
func (r *competitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Competition, error) {
	var competition domain.Competition
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&competition)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCompetitionNotFound
		}
		return nil, result.Error
	}
	return &competition, nil
}

// FindByIDWithProblems finds a competition with all its problems loaded
func (r *competitionRepository) FindByIDWithProblems(ctx context.Context, id uuid.UUID) (*domain.Competition, error) {
	var competition domain.Competition
	result := r.db.WithContext(ctx).
		Preload("Problems", func(db *gorm.DB) *gorm.DB {
			return db.Order("problems.name ASC")
		}).
		Where("id = ?", id).
		First(&competition)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCompetitionNotFound
		}
		return nil, result.Error
	}
	return &competition, nil
}

// Count returns the number of competitions
func (r *competitionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.Competition{}).Count(&count)
	return count, result.Error
}
