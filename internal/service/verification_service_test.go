package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sql-dojo/backend/internal/domain"
	"github.com/sql-dojo/backend/internal/infrastructure"
)

func newVerificationService(f *fixture, exec *fakeExecutor, sols *fakeSolutions) *VerificationService {
	return NewVerificationService(f.problems, f.events, exec, sols, infrastructure.NoopMetrics(), testTracer(), testLogger())
}

func TestVerifyAnswer(t *testing.T) {
	tests := []struct {
		name         string
		ended        bool
		rows         [][]any
		wantCorrect  bool
		wantRecorded bool
	}{
		{name: "correct while live", rows: [][]any{{"Bob"}, {"Alice"}}, wantCorrect: true, wantRecorded: true},
		{name: "incorrect while live", rows: [][]any{{"alice"}}, wantCorrect: false, wantRecorded: true},
		{name: "correct after end", ended: true, rows: [][]any{{"alice"}, {"bob"}}, wantCorrect: true, wantRecorded: false},
		{name: "incorrect after end", ended: true, rows: [][]any{{"carol"}, {"bob"}}, wantCorrect: false, wantRecorded: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.ended)
			exec := &fakeExecutor{result: &domain.ResultSet{Columns: []string{"name"}, Rows: tt.rows, Count: len(tt.rows)}}
			svc := newVerificationService(f, exec, &fakeSolutions{solution: nameSolution()})

			res, err := svc.VerifyAnswer(context.Background(), &f.user, f.problem.ID, "SELECT name FROM employees")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCorrect, res.Correct)
			assert.Equal(t, tt.wantRecorded, res.Recorded)
			assert.Equal(t, []int{0}, exec.limits)

			if tt.wantRecorded {
				require.Len(t, f.events.submissions, 1)
				sub := f.events.submissions[0]
				assert.Equal(t, tt.wantCorrect, sub.Correct)
				assert.Equal(t, f.user.ID, sub.UserID)
				assert.Equal(t, f.problem.ID, sub.ProblemID)
			} else {
				assert.Empty(t, f.events.submissions)
			}
		})
	}
}

func TestVerifyAnswer_QueryErrorRecordsNothing(t *testing.T) {
	f := newFixture(false)
	qerr := &domain.QueryError{Message: `syntax error at or near "SELEC"`, SQLState: "42601"}
	svc := newVerificationService(f, &fakeExecutor{err: qerr}, &fakeSolutions{solution: nameSolution()})

	res, err := svc.VerifyAnswer(context.Background(), &f.user, f.problem.ID, "SELEC 1")
	assert.Nil(t, res)
	got, ok := domain.AsQueryError(err)
	require.True(t, ok)
	assert.Equal(t, "42601", got.SQLState)
	assert.Empty(t, f.events.submissions)
}

func TestVerifyAnswer_SolutionUnavailable(t *testing.T) {
	f := newFixture(false)
	exec := &fakeExecutor{result: &domain.ResultSet{Columns: []string{"name"}, Rows: [][]any{}}}
	svc := newVerificationService(f, exec, &fakeSolutions{err: errors.New("relation does not exist")})

	_, err := svc.VerifyAnswer(context.Background(), &f.user, f.problem.ID, "SELECT 1")
	assert.ErrorIs(t, err, domain.ErrSolutionUnavailable)
	assert.Empty(t, f.events.submissions)
}

func TestVerifyAnswer_Rejects(t *testing.T) {
	f := newFixture(false)
	svc := newVerificationService(f, &fakeExecutor{}, &fakeSolutions{solution: nameSolution()})

	_, err := svc.VerifyAnswer(context.Background(), &f.user, f.problem.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)

	_, err = svc.VerifyAnswer(context.Background(), &f.user, uuid.New(), "SELECT 1")
	assert.ErrorIs(t, err, domain.ErrProblemNotFound)
}

func TestVerifyAnswer_WriteFailure(t *testing.T) {
	f := newFixture(false)
	f.events.failWrites = true
	exec := &fakeExecutor{result: &nameSolution().ResultSet}
	svc := newVerificationService(f, exec, &fakeSolutions{solution: nameSolution()})

	_, err := svc.VerifyAnswer(context.Background(), &f.user, f.problem.ID, "SELECT name FROM employees")
	assert.ErrorIs(t, err, errWriteFailed)
}
