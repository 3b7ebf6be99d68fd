package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sql-dojo/backend/internal/cache"
	"github.com/sql-dojo/backend/internal/domain"
	"github.com/sql-dojo/backend/internal/infrastructure"
	"github.com/sql-dojo/backend/internal/middleware"
)

type leaderboardService interface {
	GetLeaderboard(ctx context.Context, user *domain.User, competitionID uuid.UUID, selfOnly bool) (*domain.LeaderboardResponse, error)
}

// leaderboardLoadTimeout bounds a shared leaderboard computation
const leaderboardLoadTimeout = 30 * time.Second

// leaderboardKey separates the admin view, which carries the feed, from the
// participant view of the same competition
type leaderboardKey struct {
	competitionID uuid.UUID
	admin         bool
}

// LeaderboardHandler serves competition standings and the admin feed stream
type LeaderboardHandler struct {
	leaderboardService leaderboardService
	cache              *cache.TTLCache[leaderboardKey, *domain.LeaderboardResponse]
	cacheTTL           time.Duration
	streamInterval     time.Duration
	upgrader           websocket.Upgrader
	metrics            *infrastructure.TelemetryMetrics
	logger             *zap.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(
	leaderboardService leaderboardService,
	config *infrastructure.LeaderboardConfig,
	allowedOrigins []string,
	metrics *infrastructure.TelemetryMetrics,
	logger *zap.Logger,
) (*LeaderboardHandler, error) {
	c, err := cache.New[leaderboardKey, *domain.LeaderboardResponse](config.CacheSize, config.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create leaderboard cache: %w", err)
	}

	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		cache:              c,
		cacheTTL:           config.CacheTTL,
		streamInterval:     config.FeedStreamInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		metrics: metrics,
		logger:  logger,
	}, nil
}

// GetLeaderboard returns the ranking, plus the feed for admins.
// With ?self=1 only the caller's row is computed.
// GET /api/competitions/:id/leaderboard
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	user, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "Invalid competition ID")
	if !ok {
		return
	}

	selfOnly, _ := strconv.ParseBool(c.DefaultQuery("self", "false"))
	if selfOnly {
		resp, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), user, id, true)
		if err != nil {
			respondError(c, err, "Failed to compute leaderboard")
			return
		}
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, resp)
		return
	}

	resp, err := h.load(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err, "Failed to compute leaderboard")
		return
	}

	c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", int(h.cacheTTL.Seconds())))
	c.JSON(http.StatusOK, resp)
}

// load reads the full leaderboard through the cache.
// Concurrent callers share one computation, so it runs detached from the
// request that happened to start it.
func (h *LeaderboardHandler) load(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.LeaderboardResponse, error) {
	key := leaderboardKey{competitionID: id, admin: user.IsAdmin}
	resp, hit, err := h.cache.GetOrLoad(key, func() (*domain.LeaderboardResponse, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaderboardLoadTimeout)
		defer cancel()
		return h.leaderboardService.GetLeaderboard(loadCtx, user, id, false)
	})
	if hit {
		h.metrics.CacheHits.Add(ctx, 1)
	} else {
		h.metrics.CacheMisses.Add(ctx, 1)
	}
	return resp, err
}
