package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Difficulty represents the difficulty level of a problem
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Weight returns a numeric weight for sorting by difficulty
func (d Difficulty) Weight() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 0
	}
}

// Valid reports whether d is one of the known levels
func (d Difficulty) Valid() bool {
	return d.Weight() > 0
}

// Problem is a SQL task within a competition. DBName names both the sandbox
// database participants query and the table in the solutions schema holding
// the expected result.
type Problem struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CompetitionID uuid.UUID      `json:"competition_id" gorm:"type:uuid;not null;index"`
	Name          string         `json:"name" gorm:"not null"`
	Description   string         `json:"description" gorm:"type:text"`
	DBName        string         `json:"db_name" gorm:"column:db_name;not null"`
	Points        int            `json:"points" gorm:"not null"`
	Difficulty    Difficulty     `json:"difficulty" gorm:"type:varchar(10);not null"`
	Tags          pq.StringArray `json:"tags" gorm:"type:text[]"`

	Competition *Competition `json:"-" gorm:"foreignKey:CompetitionID"`
}

// TableName specifies the table name for GORM
func (Problem) TableName() string {
	return "problems"
}

// ProblemRepository defines the interface for problem data access
type ProblemRepository interface {
	// FindByID loads the problem together with its competition
	FindByID(ctx context.Context, id uuid.UUID) (*Problem, error)
	FindByCompetition(ctx context.Context, competitionID uuid.UUID) ([]Problem, error)
}

// ProblemResponse represents a problem in API responses
type ProblemResponse struct {
	ID            uuid.UUID  `json:"id"`
	CompetitionID uuid.UUID  `json:"competition_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	DBName        string     `json:"db_name"`
	Points        int        `json:"points"`
	Difficulty    Difficulty `json:"difficulty"`
	Tags          []string   `json:"tags"`
}

// ToResponse converts a Problem to a ProblemResponse
func (p *Problem) ToResponse() ProblemResponse {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return ProblemResponse{
		ID:            p.ID,
		CompetitionID: p.CompetitionID,
		Name:          p.Name,
		Description:   p.Description,
		DBName:        p.DBName,
		Points:        p.Points,
		Difficulty:    p.Difficulty,
		Tags:          tags,
	}
}
