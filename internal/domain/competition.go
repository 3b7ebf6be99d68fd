package domain

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// CompetitionStatus is derived from the competition window and the current time
type CompetitionStatus string

const (
	CompetitionStatusUpcoming CompetitionStatus = "upcoming"
	CompetitionStatusLive     CompetitionStatus = "live"
	CompetitionStatusEnded    CompetitionStatus = "ended"
)

// Competition is a time-bounded event owning a set of problems
type Competition struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Problems []Problem `json:"problems,omitempty" gorm:"foreignKey:CompetitionID"`
}

// TableName specifies the table name for GORM
func (Competition) TableName() string {
	return "competitions"
}

// HasEnded reports whether submissions made at now no longer count
func (c *Competition) HasEnded(now time.Time) bool {
	return !c.EndDate.After(now)
}

// Status classifies the competition relative to now
func (c *Competition) Status(now time.Time) CompetitionStatus {
	switch {
	case now.Before(c.StartDate):
		return CompetitionStatusUpcoming
	case c.HasEnded(now):
		return CompetitionStatusEnded
	default:
		return CompetitionStatusLive
	}
}

// CompetitionRepository defines the interface for competition data access
type CompetitionRepository interface {
	Create(ctx context.Context, competition *Competition) error
	FindAll(ctx context.Context) ([]Competition, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Competition, error)
	FindByIDWithProblems(ctx context.Context, id uuid.UUID) (*Competition, error)
	Count(ctx context.Context) (int64, error)
}

// CompetitionResponse represents a competition in API responses
type CompetitionResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	Status      CompetitionStatus `json:"status"`
	Problems    []ProblemResponse `json:"problems,omitempty"`
}

// ToResponse converts a Competition to a CompetitionResponse. Problems are
// listed easiest first, then by name.
func (c *Competition) ToResponse(now time.Time) CompetitionResponse {
	problems := make([]ProblemResponse, len(c.Problems))
	for i := range c.Problems {
		problems[i] = c.Problems[i].ToResponse()
	}
	sort.SliceStable(problems, func(i, j int) bool {
		wi, wj := problems[i].Difficulty.Weight(), problems[j].Difficulty.Weight()
		if wi != wj {
			return wi < wj
		}
		return problems[i].Name < problems[j].Name
	})

	return CompetitionResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Status:      c.Status(now),
		Problems:    problems,
	}
}
