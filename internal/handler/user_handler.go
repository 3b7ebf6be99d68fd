package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sql-dojo/backend/internal/middleware"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct{}

// NewUserHandler creates a new user handler
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// GetCurrentUser returns the currently authenticated user
// GET /api/users/me
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}
