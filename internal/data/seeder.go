package data

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v3"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sql-dojo/backend/internal/domain"
)

//go:embed demo_competition.json
var demoCompetitionData []byte

// competitionJSON represents the JSON structure of a seeded competition.
// Dates are relative to the moment of seeding.
type competitionJSON struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	StartsInHours int           `json:"starts_in_hours"`
	DurationHours int           `json:"duration_hours"`
	Problems      []problemJSON `json:"problems"`
}

// problemJSON represents the JSON structure for problems
type problemJSON struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DBName      string   `json:"db_name"`
	Points      int      `json:"points"`
	Difficulty  string   `json:"difficulty"`
	Tags        []string `json:"tags"`
}

func (c competitionJSON) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.DurationHours, validation.Required, validation.Min(1)),
		validation.Field(&c.Problems, validation.Required),
	)
}

func (p problemJSON) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.DBName, validation.Required),
		validation.Field(&p.Points, validation.Required, validation.Min(1)),
		validation.Field(&p.Difficulty, validation.Required, validation.By(func(value interface{}) error {
			if !domain.Difficulty(value.(string)).Valid() {
				return fmt.Errorf("must be Easy, Medium or Hard")
			}
			return nil
		})),
	)
}

// Seeder handles database seeding operations
type Seeder struct {
	competitionRepo domain.CompetitionRepository
	logger          *zap.Logger
}

// NewSeeder creates a new database seeder
func NewSeeder(competitionRepo domain.CompetitionRepository, logger *zap.Logger) *Seeder {
	return &Seeder{
		competitionRepo: competitionRepo,
		logger:          logger,
	}
}

// SeedDemo inserts the embedded demo competition when no competition exists
func (s *Seeder) SeedDemo(ctx context.Context) error {
	s.logger.Info("Starting to seed demo competition...")

	count, err := s.competitionRepo.Count(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		s.logger.Info("Competitions already present, skipping",
			zap.Int64("count", count),
		)
		return nil
	}

	competition, err := DemoCompetition(time.Now())
	if err != nil {
		return err
	}

	if err := s.competitionRepo.Create(ctx, competition); err != nil {
		return err
	}

	s.logger.Info("Successfully seeded demo competition",
		zap.String("competition_id", competition.ID.String()),
		zap.Int("problems", len(competition.Problems)),
	)

	return nil
}

// DemoCompetition builds the embedded demo competition starting relative to now
func DemoCompetition(now time.Time) (*domain.Competition, error) {
	var raw competitionJSON
	if err := json.Unmarshal(demoCompetitionData, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse demo competition: %w", err)
	}
	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("invalid demo competition: %w", err)
	}

	start := now.Add(time.Duration(raw.StartsInHours) * time.Hour).Truncate(time.Minute)
	competition := &domain.Competition{
		ID:          uuid.New(),
		Name:        raw.Name,
		Description: raw.Description,
		StartDate:   start,
		EndDate:     start.Add(time.Duration(raw.DurationHours) * time.Hour),
	}

	competition.Problems = make([]domain.Problem, len(raw.Problems))
	for i, p := range raw.Problems {
		competition.Problems[i] = domain.Problem{
			ID:            uuid.New(),
			CompetitionID: competition.ID,
			Name:          p.Name,
			Description:   p.Description,
			DBName:        p.DBName,
			Points:        p.Points,
			Difficulty:    domain.Difficulty(p.Difficulty),
			Tags:          pq.StringArray(p.Tags),
		}
	}

	return competition, nil
}
