package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sql-dojo/backend/internal/domain"
)

// respondError maps domain errors to HTTP statuses. Anything unrecognised
// becomes a 500 with the fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrProblemNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Problem not found",
		})
	case errors.Is(err, domain.ErrCompetitionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Competition not found",
		})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found",
		})
	case errors.Is(err, domain.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query is required",
		})
	case errors.Is(err, domain.ErrSolutionUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Reference solution unavailable",
		})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fallback,
		})
	}
}
