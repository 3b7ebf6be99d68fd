package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sql-dojo/backend/internal/domain"
)

// growingFeed serves a feed that gains items between calls, newest first
type growingFeed struct {
	mu   sync.Mutex
	feed []domain.FeedItem
}

func (g *growingFeed) add(item domain.FeedItem) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.feed = append([]domain.FeedItem{item}, g.feed...)
}

func (g *growingFeed) GetLeaderboard(_ context.Context, _ *domain.User, _ uuid.UUID, _ bool) (*domain.LeaderboardResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	feed := make([]domain.FeedItem, len(g.feed))
	copy(feed, g.feed)
	return &domain.LeaderboardResponse{Ranking: []domain.LeaderboardRow{}, Feed: feed}, nil
}

func TestStreamFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	base := time.Now().Add(-time.Minute)
	svc := &growingFeed{}
	svc.add(domain.FeedItem{UserName: "Ada", Description: "ran a query", Timestamp: base})
	svc.add(domain.FeedItem{UserName: "Ada", Description: "submitted an incorrect answer", Timestamp: base.Add(time.Second)})

	h := newLeaderboardHandler(t, svc, time.Millisecond)
	admin := &domain.User{ID: uuid.New(), Name: "Root", IsAdmin: true}
	r := gin.New()
	r.GET("/api/competitions/:id/feed/stream", withUser(admin), h.StreamFeed)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/competitions/" + uuid.NewString() + "/feed/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() domain.FeedItem {
		t.Helper()
		var item domain.FeedItem
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&item))
		return item
	}

	assert.Equal(t, "ran a query", read().Description)
	assert.Equal(t, "submitted an incorrect answer", read().Description)

	svc.add(domain.FeedItem{UserName: "Ada", Description: "submitted a correct answer", Timestamp: base.Add(2 * time.Second)})
	assert.Equal(t, "submitted a correct answer", read().Description)
}

func TestStreamFeed_RejectsPlainRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newLeaderboardHandler(t, &growingFeed{}, time.Minute)
	admin := &domain.User{ID: uuid.New(), Name: "Root", IsAdmin: true}
	r := gin.New()
	r.GET("/api/competitions/:id/feed/stream", withUser(admin), h.StreamFeed)

	w := do(r, "GET", "/api/competitions/"+uuid.NewString()+"/feed/stream", "")
	assert.Equal(t, 400, w.Code)
}

func TestFeedStream_ItemsSharingATimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	query := domain.FeedItem{UserName: "Ada", ProblemName: "Recent hires", Description: "ran a query", Query: "SELECT 1", Timestamp: at}
	wrong := domain.FeedItem{UserName: "Bob", ProblemName: "Recent hires", Description: "submitted an incorrect answer", Timestamp: at}
	later := domain.FeedItem{UserName: "Ada", ProblemName: "Recent hires", Description: "submitted a correct answer", Timestamp: at.Add(time.Second)}

	s := &feedStream{}
	send := func(feed ...domain.FeedItem) []string {
		var got []string
		for _, item := range s.unsent(feed) {
			got = append(got, item.Description)
			s.markSent(item)
		}
		return got
	}

	assert.Equal(t, []string{"ran a query"}, send(query))
	// Bob's answer landed in the same instant but was loaded a poll later.
	assert.Equal(t, []string{"submitted an incorrect answer"}, send(wrong, query))
	assert.Empty(t, send(wrong, query))
	// A repeat of the same query at the same instant is a new event.
	assert.Equal(t, []string{"ran a query"}, send(wrong, query, query))
	assert.Equal(t, []string{"submitted a correct answer"}, send(later, wrong, query, query))
	assert.Empty(t, send(later, wrong, query, query))
}
