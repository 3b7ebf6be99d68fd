// Package scoring folds competition events into a ranked leaderboard and an
// activity feed. It performs no I/O.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sql-dojo/backend/internal/domain"
)

const (
	DefaultMaxSolveTime     = time.Hour
	DefaultIncorrectPenalty = 5 * time.Minute
	DefaultFeedLimit        = 25
)

// Options are the scoring constants
type Options struct {
	// MaxSolveTime caps the time charged for a single problem
	MaxSolveTime time.Duration
	// IncorrectPenalty is charged per incorrect attempt once the problem is solved
	IncorrectPenalty time.Duration
	// FeedLimit caps the number of feed items returned
	FeedLimit int
}

// DefaultOptions returns the standard competition rules
func DefaultOptions() Options {
	return Options{
		MaxSolveTime:     DefaultMaxSolveTime,
		IncorrectPenalty: DefaultIncorrectPenalty,
		FeedLimit:        DefaultFeedLimit,
	}
}

// Input is everything recorded for one competition. Submissions, queries and
// assists must have Problem loaded.
type Input struct {
	Participants []domain.User
	Opens        []domain.ProblemOpen
	Queries      []domain.ProblemQuery
	Submissions  []domain.ProblemSubmission
	Assists      []domain.AssistPrompt
	IncludeFeed  bool
}

// Aggregator computes leaderboards
type Aggregator struct {
	opts   Options
	logger *zap.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(opts Options, logger *zap.Logger) *Aggregator {
	return &Aggregator{opts: opts, logger: logger}
}

type problemKey struct {
	user    uuid.UUID
	problem uuid.UUID
}

// Aggregate builds the leaderboard. The ranking depends only on the set of
// input events, not on the order they are passed in.
func (a *Aggregator) Aggregate(in Input) domain.LeaderboardResponse {
	rows := make(map[uuid.UUID]*domain.LeaderboardRow, len(in.Participants))
	for _, u := range in.Participants {
		if _, ok := rows[u.ID]; ok {
			continue
		}
		rows[u.ID] = &domain.LeaderboardRow{
			UserID:       u.ID,
			UserName:     u.Name,
			UserImage:    u.Image,
			ProblemState: make(map[uuid.UUID]domain.ProblemState),
		}
	}

	var feed []domain.FeedItem
	addFeed := func(row *domain.LeaderboardRow, problem *domain.Problem, description string, color domain.FeedColor, query string, at time.Time) {
		if !in.IncludeFeed {
			return
		}
		item := domain.FeedItem{
			UserName:         row.UserName,
			UserImage:        row.UserImage,
			Description:      description,
			DescriptionColor: color,
			Query:            query,
			Timestamp:        at,
		}
		if problem != nil {
			item.ProblemName = problem.Name
		}
		feed = append(feed, item)
	}

	a.applyOpens(rows, in.Opens)
	a.applySubmissions(rows, in.Submissions, addFeed)

	for _, p := range in.Assists {
		row, ok := rows[p.UserID]
		if !ok {
			a.skipOutsider("assist", p.UserID, p.ProblemID)
			continue
		}
		row.AssistCount++
		if state, ok := row.ProblemState[p.ProblemID]; ok {
			state.AssistCount++
			row.ProblemState[p.ProblemID] = state
		}
		addFeed(row, p.Problem, "used the AI assistant to get a prompt", domain.FeedColorBlue, p.Answer, p.CreatedAt)
	}

	for _, q := range in.Queries {
		row, ok := rows[q.UserID]
		if !ok {
			a.skipOutsider("query", q.UserID, q.ProblemID)
			continue
		}
		addFeed(row, q.Problem, "ran a query", domain.FeedColorNone, q.Query, q.CreatedAt)
	}

	resp := domain.LeaderboardResponse{Ranking: rank(rows)}
	if in.IncludeFeed {
		resp.Feed = latest(feed, a.opts.FeedLimit)
	}
	return resp
}

// applyOpens starts the clock for every opened problem. If a pair was opened
// more than once the earliest open wins.
func (a *Aggregator) applyOpens(rows map[uuid.UUID]*domain.LeaderboardRow, opens []domain.ProblemOpen) {
	for _, o := range opens {
		row, ok := rows[o.UserID]
		if !ok {
			a.skipOutsider("open", o.UserID, o.ProblemID)
			continue
		}
		if existing, ok := row.ProblemState[o.ProblemID]; ok && !o.CreatedAt.Before(existing.OpenTimestamp) {
			continue
		}
		row.ProblemState[o.ProblemID] = domain.ProblemState{
			Status:        domain.ProblemStatusOpen,
			OpenTimestamp: o.CreatedAt,
		}
	}
}

// applySubmissions folds submissions into problem states in two passes.
// The first pass finds the earliest correct submission per problem. The
// second pass visits incorrect submissions before correct ones, so every
// counted attempt is in place when the solve is scored. Incorrect
// submissions made after the first correct one are not attempts.
func (a *Aggregator) applySubmissions(
	rows map[uuid.UUID]*domain.LeaderboardRow,
	submissions []domain.ProblemSubmission,
	addFeed func(*domain.LeaderboardRow, *domain.Problem, string, domain.FeedColor, string, time.Time),
) {
	ordered := make([]domain.ProblemSubmission, len(submissions))
	copy(ordered, submissions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Correct != ordered[j].Correct {
			return !ordered[i].Correct
		}
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	firstCorrect := make(map[problemKey]time.Time)
	for _, s := range ordered {
		if !s.Correct {
			continue
		}
		key := problemKey{user: s.UserID, problem: s.ProblemID}
		if _, ok := firstCorrect[key]; !ok {
			firstCorrect[key] = s.CreatedAt
		}
	}

	for _, s := range ordered {
		row, ok := rows[s.UserID]
		if !ok {
			a.skipOutsider("submission", s.UserID, s.ProblemID)
			continue
		}
		state, ok := row.ProblemState[s.ProblemID]
		if !ok {
			a.logger.Warn("Submission for a problem that was never opened",
				zap.String("user_id", s.UserID.String()),
				zap.String("problem_id", s.ProblemID.String()),
				zap.String("submission_id", s.ID.String()),
			)
			continue
		}

		if s.Correct {
			if state.Status != domain.ProblemStatusSolved {
				elapsed := a.elapsedSecs(state.OpenTimestamp, s.CreatedAt)
				state.Status = domain.ProblemStatusSolved
				state.SolveTimeSecs = elapsed
				row.TotalPoints += problemPoints(s.Problem)
				row.TotalTimeSecs += elapsed + float64(state.Attempts)*a.opts.IncorrectPenalty.Seconds()
			}
		} else if state.Status != domain.ProblemStatusSolved {
			solvedAt, solved := firstCorrect[problemKey{user: s.UserID, problem: s.ProblemID}]
			if !solved || s.CreatedAt.Before(solvedAt) {
				state.Status = domain.ProblemStatusAttempted
				state.Attempts++
			}
		}
		row.ProblemState[s.ProblemID] = state

		if s.Correct {
			addFeed(row, s.Problem, "submitted a correct answer", domain.FeedColorGreen, s.Query, s.CreatedAt)
		} else {
			addFeed(row, s.Problem, "submitted an incorrect answer", domain.FeedColorRed, s.Query, s.CreatedAt)
		}
	}
}

// skipOutsider logs an event whose user is not among the participants
func (a *Aggregator) skipOutsider(kind string, userID, problemID uuid.UUID) {
	a.logger.Warn("Skipping event from a user outside the participants",
		zap.String("kind", kind),
		zap.String("user_id", userID.String()),
		zap.String("problem_id", problemID.String()),
	)
}

// elapsedSecs is the time charged for a submission made at `at`
func (a *Aggregator) elapsedSecs(opened, at time.Time) float64 {
	secs := at.Sub(opened).Seconds()
	return math.Max(0, math.Min(a.opts.MaxSolveTime.Seconds(), secs))
}

func problemPoints(p *domain.Problem) int {
	if p == nil {
		return 0
	}
	return p.Points
}

// rank orders rows by points, then time, then assistant use, then name.
// The user id settles rows that agree on all four.
func rank(rows map[uuid.UUID]*domain.LeaderboardRow) []domain.LeaderboardRow {
	ranking := make([]domain.LeaderboardRow, 0, len(rows))
	for _, row := range rows {
		ranking = append(ranking, *row)
	}
	sort.Slice(ranking, func(i, j int) bool {
		x, y := ranking[i], ranking[j]
		if x.TotalPoints != y.TotalPoints {
			return x.TotalPoints > y.TotalPoints
		}
		if x.TotalTimeSecs != y.TotalTimeSecs {
			return x.TotalTimeSecs < y.TotalTimeSecs
		}
		if x.AssistCount != y.AssistCount {
			return x.AssistCount < y.AssistCount
		}
		if x.UserName != y.UserName {
			return x.UserName < y.UserName
		}
		return x.UserID.String() < y.UserID.String()
	})
	for i := range ranking {
		ranking[i].Rank = i + 1
	}
	return ranking
}

// latest returns up to limit feed items, newest first
func latest(feed []domain.FeedItem, limit int) []domain.FeedItem {
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Timestamp.After(feed[j].Timestamp)
	})
	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	if feed == nil {
		feed = []domain.FeedItem{}
	}
	return feed
}
