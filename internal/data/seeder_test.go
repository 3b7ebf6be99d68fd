package data

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sql-dojo/backend/internal/domain"
)

type memCompetitions struct {
	created []domain.Competition
	count   int64
}

func (m *memCompetitions) Create(_ context.Context, c *domain.Competition) error {
	m.created = append(m.created, *c)
	m.count++
	return nil
}

func (m *memCompetitions) FindAll(context.Context) ([]domain.Competition, error) {
	return m.created, nil
}

func (m *memCompetitions) FindByID(context.Context, uuid.UUID) (*domain.Competition, error) {
	return nil, domain.ErrCompetitionNotFound
}

func (m *memCompetitions) FindByIDWithProblems(context.Context, uuid.UUID) (*domain.Competition, error) {
	return nil, domain.ErrCompetitionNotFound
}

func (m *memCompetitions) Count(context.Context) (int64, error) {
	return m.count, nil
}

func TestDemoCompetition(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c, err := DemoCompetition(now)
	require.NoError(t, err)

	assert.Equal(t, now, c.StartDate)
	assert.True(t, c.EndDate.After(c.StartDate))
	require.NotEmpty(t, c.Problems)
	for _, p := range c.Problems {
		assert.Equal(t, c.ID, p.CompetitionID)
		assert.NotEmpty(t, p.DBName)
		assert.True(t, p.Difficulty.Valid())
		assert.Positive(t, p.Points)
	}
}

func TestSeedDemo(t *testing.T) {
	repo := &memCompetitions{}
	seeder := NewSeeder(repo, zap.NewNop())

	require.NoError(t, seeder.SeedDemo(context.Background()))
	require.Len(t, repo.created, 1)

	require.NoError(t, seeder.SeedDemo(context.Background()))
	assert.Len(t, repo.created, 1)
}

func TestProblemJSONValidate(t *testing.T) {
	valid := problemJSON{Name: "x", DBName: "t", Points: 10, Difficulty: "Easy"}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Difficulty = "Impossible"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.DBName = ""
	assert.Error(t, bad.Validate())
}
