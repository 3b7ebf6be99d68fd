package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenProblem_KeepsFirstOpen(t *testing.T) {
	f := newFixture(false)
	svc := NewProblemService(f.problems, f.events, testTracer(), testLogger())

	first, err := svc.OpenProblem(context.Background(), &f.user, f.problem.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	time.Sleep(5 * time.Millisecond)
	second, err := svc.OpenProblem(context.Background(), &f.user, f.problem.ID)
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.Len(t, f.events.opens, 1)
}

func TestOpenProblem_EndedCompetition(t *testing.T) {
	f := newFixture(true)
	svc := NewProblemService(f.problems, f.events, testTracer(), testLogger())

	open, err := svc.OpenProblem(context.Background(), &f.user, f.problem.ID)
	require.NoError(t, err)
	assert.Nil(t, open)
	assert.Empty(t, f.events.opens)
}

func TestSubmitFeedback(t *testing.T) {
	f := newFixture(true)
	svc := NewProblemService(f.problems, f.events, testTracer(), testLogger())

	require.NoError(t, svc.SubmitFeedback(context.Background(), &f.user, f.problem.ID, true))
	require.Len(t, f.events.feedback, 1)
	assert.True(t, f.events.feedback[0].Liked)
}
