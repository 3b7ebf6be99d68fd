package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/sql-dojo/backend/internal/domain"
)

func testTracer() trace.Tracer {
	return tracenoop.NewTracerProvider().Tracer("test")
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

type fakeUsers struct {
	users map[uuid.UUID]domain.User
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) FindParticipants(_ context.Context, _ uuid.UUID) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

type fakeCompetitions struct {
	competitions map[uuid.UUID]domain.Competition
}

func (f *fakeCompetitions) Create(_ context.Context, c *domain.Competition) error {
	f.competitions[c.ID] = *c
	return nil
}

func (f *fakeCompetitions) FindAll(_ context.Context) ([]domain.Competition, error) {
	out := make([]domain.Competition, 0, len(f.competitions))
	for _, c := range f.competitions {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCompetitions) FindByID(_ context.Context, id uuid.UUID) (*domain.Competition, error) {
	c, ok := f.competitions[id]
	if !ok {
		return nil, domain.ErrCompetitionNotFound
	}
	return &c, nil
}

func (f *fakeCompetitions) FindByIDWithProblems(ctx context.Context, id uuid.UUID) (*domain.Competition, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeCompetitions) Count(_ context.Context) (int64, error) {
	return int64(len(f.competitions)), nil
}

type fakeProblems struct {
	problems map[uuid.UUID]domain.Problem
}

func (f *fakeProblems) FindByID(_ context.Context, id uuid.UUID) (*domain.Problem, error) {
	p, ok := f.problems[id]
	if !ok {
		return nil, domain.ErrProblemNotFound
	}
	return &p, nil
}

func (f *fakeProblems) FindByCompetition(_ context.Context, competitionID uuid.UUID) ([]domain.Problem, error) {
	var out []domain.Problem
	for _, p := range f.problems {
		if p.CompetitionID == competitionID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeEvents struct {
	mu          sync.Mutex
	opens       []domain.ProblemOpen
	queries     []domain.ProblemQuery
	submissions []domain.ProblemSubmission
	assists     []domain.AssistPrompt
	feedback    []domain.ProblemFeedback
	failWrites  bool
	lastFilter  domain.EventFilter
}

var errWriteFailed = errors.New("write failed")

func (f *fakeEvents) UpsertOpen(_ context.Context, open *domain.ProblemOpen) (*domain.ProblemOpen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.opens {
		if o.ProblemID == open.ProblemID && o.UserID == open.UserID {
			return &o, nil
		}
	}
	f.opens = append(f.opens, *open)
	return open, nil
}

func (f *fakeEvents) CreateQuery(_ context.Context, q *domain.ProblemQuery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errWriteFailed
	}
	f.queries = append(f.queries, *q)
	return nil
}

func (f *fakeEvents) CreateSubmission(_ context.Context, s *domain.ProblemSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errWriteFailed
	}
	s.ID = uuid.New()
	f.submissions = append(f.submissions, *s)
	return nil
}

func (f *fakeEvents) CreateFeedback(_ context.Context, fb *domain.ProblemFeedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedback = append(f.feedback, *fb)
	return nil
}

func (f *fakeEvents) FindOpens(_ context.Context, filter domain.EventFilter) ([]domain.ProblemOpen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	var out []domain.ProblemOpen
	for _, o := range f.opens {
		if filter.UserID == nil || *filter.UserID == o.UserID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeEvents) FindQueries(_ context.Context, filter domain.EventFilter) ([]domain.ProblemQuery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ProblemQuery
	for _, q := range f.queries {
		if filter.UserID == nil || *filter.UserID == q.UserID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeEvents) FindSubmissions(_ context.Context, filter domain.EventFilter) ([]domain.ProblemSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ProblemSubmission
	for _, s := range f.submissions {
		if filter.UserID == nil || *filter.UserID == s.UserID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeEvents) FindAssists(_ context.Context, filter domain.EventFilter) ([]domain.AssistPrompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AssistPrompt
	for _, a := range f.assists {
		if filter.UserID == nil || *filter.UserID == a.UserID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeEvents) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeExecutor struct {
	result *domain.ResultSet
	err    error
	limits []int
	mu     sync.Mutex
}

func (f *fakeExecutor) Execute(_ context.Context, _, _ string, limit int) (*domain.ResultSet, error) {
	f.mu.Lock()
	f.limits = append(f.limits, limit)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSolutions struct {
	solution *domain.Solution
	err      error
}

func (f *fakeSolutions) Fetch(_ context.Context, _ string) (*domain.Solution, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.solution, nil
}

func (f *fakeSolutions) Columns(_ context.Context, _ string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.solution.Columns, nil
}

// fixture is a competition with one problem, live unless ended is set
type fixture struct {
	user        domain.User
	competition domain.Competition
	problem     domain.Problem
	users       *fakeUsers
	comps       *fakeCompetitions
	problems    *fakeProblems
	events      *fakeEvents
}

func newFixture(ended bool) *fixture {
	now := time.Now()
	comp := domain.Competition{
		ID:        uuid.New(),
		Name:      "Weekly",
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
	}
	if ended {
		comp.EndDate = now.Add(-time.Minute)
	}
	problem := domain.Problem{
		ID:            uuid.New(),
		CompetitionID: comp.ID,
		Name:          "Top earners",
		DBName:        "employees",
		Points:        100,
		Difficulty:    domain.DifficultyEasy,
		Competition:   &comp,
	}
	user := domain.User{ID: uuid.New(), Name: "Ada"}
	return &fixture{
		user:        user,
		competition: comp,
		problem:     problem,
		users:       &fakeUsers{users: map[uuid.UUID]domain.User{user.ID: user}},
		comps:       &fakeCompetitions{competitions: map[uuid.UUID]domain.Competition{comp.ID: comp}},
		problems:    &fakeProblems{problems: map[uuid.UUID]domain.Problem{problem.ID: problem}},
		events:      &fakeEvents{},
	}
}

func nameSolution() *domain.Solution {
	return &domain.Solution{ResultSet: domain.ResultSet{
		Columns: []string{"name"},
		Rows:    [][]any{{"alice"}, {"bob"}},
		Count:   2,
	}}
}
