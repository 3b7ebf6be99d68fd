package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is an authenticated participant or administrator. Rows are provisioned
// by the identity provider; this service only reads them.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"not null"`
	Image     string    `json:"image"`
	IsAdmin   bool      `json:"is_admin" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindParticipants returns every user that opened at least one problem of the competition
	FindParticipants(ctx context.Context, competitionID uuid.UUID) ([]User, error)
}

// UserResponse represents the public user data returned by the API
type UserResponse struct {
	ID      uuid.UUID `json:"id"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	Image   string    `json:"image"`
	IsAdmin bool      `json:"is_admin"`
}

// ToResponse converts a User to a UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Image:   u.Image,
		IsAdmin: u.IsAdmin,
	}
}
