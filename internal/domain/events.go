package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProblemOpen marks the moment a user first viewed a problem. Solve time is
// measured from it. At most one row exists per (problem, user).
type ProblemOpen struct {
	ProblemID uuid.UUID `json:"problem_id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`

	Problem *Problem `json:"-" gorm:"foreignKey:ProblemID"`
}

// TableName specifies the table name for GORM
func (ProblemOpen) TableName() string {
	return "problem_opens"
}

// ProblemQuery is a preview execution. It affects the activity feed only.
type ProblemQuery struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProblemID uuid.UUID `json:"problem_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Query     string    `json:"query" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`

	Problem *Problem `json:"-" gorm:"foreignKey:ProblemID"`
}

// TableName specifies the table name for GORM
func (ProblemQuery) TableName() string {
	return "problem_queries"
}

// ProblemSubmission is a verified answer made while the competition was running
type ProblemSubmission struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProblemID uuid.UUID `json:"problem_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Query     string    `json:"query" gorm:"type:text;not null"`
	Correct   bool      `json:"correct" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`

	Problem *Problem `json:"-" gorm:"foreignKey:ProblemID"`
}

// TableName specifies the table name for GORM
func (ProblemSubmission) TableName() string {
	return "problem_submissions"
}

// AssistPrompt records a participant asking the AI assistant for help on a
// problem. The assistant itself lives elsewhere; rows are only counted here.
type AssistPrompt struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProblemID uuid.UUID `json:"problem_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Prompt    string    `json:"prompt" gorm:"type:text"`
	Answer    string    `json:"answer" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`

	Problem *Problem `json:"-" gorm:"foreignKey:ProblemID"`
}

// TableName specifies the table name for GORM
func (AssistPrompt) TableName() string {
	return "assist_prompts"
}

// ProblemFeedback is a thumbs up or down left on a problem
type ProblemFeedback struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProblemID uuid.UUID `json:"problem_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Liked     bool      `json:"liked" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

// TableName specifies the table name for GORM
func (ProblemFeedback) TableName() string {
	return "problem_feedback"
}

// EventFilter selects the events of one competition, optionally for one user
type EventFilter struct {
	CompetitionID uuid.UUID
	UserID        *uuid.UUID
}

// EventRepository stores and reads the per-problem activity log.
// Read methods preload Problem.
type EventRepository interface {
	// UpsertOpen inserts the open unless one exists and returns the stored row
	UpsertOpen(ctx context.Context, open *ProblemOpen) (*ProblemOpen, error)
	CreateQuery(ctx context.Context, query *ProblemQuery) error
	CreateSubmission(ctx context.Context, submission *ProblemSubmission) error
	CreateFeedback(ctx context.Context, feedback *ProblemFeedback) error

	FindOpens(ctx context.Context, filter EventFilter) ([]ProblemOpen, error)
	FindQueries(ctx context.Context, filter EventFilter) ([]ProblemQuery, error)
	FindSubmissions(ctx context.Context, filter EventFilter) ([]ProblemSubmission, error)
	FindAssists(ctx context.Context, filter EventFilter) ([]AssistPrompt, error)
}
