package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sql-dojo/backend/internal/domain"
	"github.com/sql-dojo/backend/internal/middleware"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
)

// StreamFeed pushes feed items to an admin as they happen
// GET /api/competitions/:id/feed/stream
func (h *LeaderboardHandler) StreamFeed(c *gin.Context) {
	user, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "Invalid competition ID")
	if !ok {
		return
	}

	initial, err := h.load(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err, "Failed to compute leaderboard")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	// Client messages are ignored; reading surfaces close frames and pongs.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	stream := &feedStream{conn: conn}
	if err := stream.push(initial.Feed); err != nil {
		return
	}

	poll := time.NewTicker(h.streamInterval)
	defer poll.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			resp, err := h.load(ctx, user, id)
			if err != nil {
				h.logger.Warn("Feed refresh failed",
					zap.String("competition_id", id.String()),
					zap.Error(err),
				)
				continue
			}
			if err := stream.push(resp.Feed); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// feedKey identifies a feed item among those sharing a timestamp
type feedKey struct {
	user, problem, description, query string
}

func keyOf(item domain.FeedItem) feedKey {
	return feedKey{item.UserName, item.ProblemName, item.Description, item.Query}
}

// feedStream remembers what has been sent on a connection: the newest
// timestamp, and how many of each item carried exactly that timestamp.
type feedStream struct {
	conn       *websocket.Conn
	last       time.Time
	sentAtLast map[feedKey]int
}

// unsent returns the items not yet written, oldest first. feed is newest first.
func (s *feedStream) unsent(feed []domain.FeedItem) []domain.FeedItem {
	var out []domain.FeedItem
	seen := make(map[feedKey]int)
	for i := len(feed) - 1; i >= 0; i-- {
		item := feed[i]
		if item.Timestamp.Before(s.last) {
			continue
		}
		if item.Timestamp.Equal(s.last) {
			k := keyOf(item)
			seen[k]++
			if seen[k] <= s.sentAtLast[k] {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

func (s *feedStream) markSent(item domain.FeedItem) {
	if item.Timestamp.After(s.last) || s.sentAtLast == nil {
		s.last = item.Timestamp
		s.sentAtLast = make(map[feedKey]int)
	}
	s.sentAtLast[keyOf(item)]++
}

// push writes the unsent items, oldest first
func (s *feedStream) push(feed []domain.FeedItem) error {
	for _, item := range s.unsent(feed) {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteJSON(item); err != nil {
			return err
		}
		s.markSent(item)
	}
	return nil
}

func originChecker(allowed []string) func(*http.Request) bool {
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		origins[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origins["*"] || origins[origin]
	}
}
