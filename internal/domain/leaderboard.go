package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProblemStatus is a participant's progress on one problem. It only moves
// forward: open, attempted, solved.
type ProblemStatus string

const (
	ProblemStatusOpen      ProblemStatus = "open"
	ProblemStatusAttempted ProblemStatus = "attempted"
	ProblemStatusSolved    ProblemStatus = "solved"
)

// ProblemState is the leaderboard cell for one user and one problem
type ProblemState struct {
	Status        ProblemStatus `json:"status"`
	OpenTimestamp time.Time     `json:"open_timestamp"`
	Attempts      int           `json:"attempts"`
	SolveTimeSecs float64       `json:"solve_time_secs"`
	AssistCount   int           `json:"assist_count"`
}

// LeaderboardRow is one participant's standing
type LeaderboardRow struct {
	Rank          int                        `json:"rank"`
	UserID        uuid.UUID                  `json:"user_id"`
	UserName      string                     `json:"user_name"`
	UserImage     string                     `json:"user_image"`
	ProblemState  map[uuid.UUID]ProblemState `json:"problem_state"`
	TotalPoints   int                        `json:"total_points"`
	TotalTimeSecs float64                    `json:"total_time_secs"`
	AssistCount   int                        `json:"assist_count"`
}

// FeedColor tags a feed item for display
type FeedColor string

const (
	FeedColorNone  FeedColor = ""
	FeedColorGreen FeedColor = "green"
	FeedColorRed   FeedColor = "red"
	FeedColorBlue  FeedColor = "blue"
)

// FeedItem is one line of the administrator activity feed
type FeedItem struct {
	UserName         string    `json:"user_name"`
	UserImage        string    `json:"user_image"`
	ProblemName      string    `json:"problem_name"`
	Description      string    `json:"description"`
	DescriptionColor FeedColor `json:"description_color,omitempty"`
	Query            string    `json:"query,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// LeaderboardResponse is the ranking plus, for administrators, the feed
type LeaderboardResponse struct {
	Ranking []LeaderboardRow `json:"ranking"`
	Feed    []FeedItem       `json:"feed,omitempty"`
}
