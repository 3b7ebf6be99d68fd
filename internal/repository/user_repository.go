package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sql-dojo/backend/internal/domain"
)

// userRepository implements domain.UserRepository using GORM
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

// FindByID finds a user by their ID
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// FindParticipants returns the users that opened a problem of the competition
func (r *userRepository) FindParticipants(ctx context.Context, competitionID uuid.UUID) ([]domain.User, error) {
	db := r.db.WithContext(ctx)

	openedBy := db.Model(&domain.ProblemOpen{}).
		Select("user_id").
		Where("problem_id IN (?)", competitionProblems(db, competitionID))

	var users []domain.User
	result := db.Where("id IN (?)", openedBy).
		Order("name ASC").
		Find(&users)
	return users, result.Error
}

// competitionProblems is a subquery selecting the problem ids of a competition
func competitionProblems(db *gorm.DB, competitionID uuid.UUID) *gorm.DB {
	return db.Model(&domain.Problem{}).
		Select("id").
		Where("competition_id = ?", competitionID)
}
