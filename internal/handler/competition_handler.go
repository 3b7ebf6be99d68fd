package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sql-dojo/backend/internal/domain"
)

type competitionService interface {
	ListCompetitions(ctx context.Context) ([]domain.Competition, error)
	GetCompetition(ctx context.Context, id uuid.UUID) (*domain.Competition, error)
}

// CompetitionHandler handles competition-related HTTP requests
type CompetitionHandler struct {
	competitionService competitionService
}

// NewCompetitionHandler creates a new competition handler
func NewCompetitionHandler(competitionService competitionService) *CompetitionHandler {
	return &CompetitionHandler{
		competitionService: competitionService,
	}
}

// ListCompetitions returns every competition, newest first
// GET /api/competitions
func (h *CompetitionHandler) ListCompetitions(c *gin.Context) {
	competitions, err := h.competitionService.ListCompetitions(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve competitions")
		return
	}

	now := time.Now()
	responses := make([]domain.CompetitionResponse, len(competitions))
	for i := range competitions {
		responses[i] = competitions[i].ToResponse(now)
	}

	c.JSON(http.StatusOK, gin.H{
		"competitions": responses,
		"count":        len(responses),
	})
}

// GetCompetition returns a competition with its problems
// GET /api/competitions/:id
func (h *CompetitionHandler) GetCompetition(c *gin.Context) {
	id, ok := parseID(c, "Invalid competition ID")
	if !ok {
		return
	}

	competition, err := h.competitionService.GetCompetition(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve competition")
		return
	}

	c.JSON(http.StatusOK, competition.ToResponse(time.Now()))
}

// parseID reads the :id path parameter, answering 400 when it is not a uuid
func parseID(c *gin.Context, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": message,
		})
		return uuid.Nil, false
	}
	return id, true
}
