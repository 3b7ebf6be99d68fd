package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sql-dojo/backend/internal/domain"
	"github.com/sql-dojo/backend/internal/middleware"
)

type problemService interface {
	GetProblem(ctx context.Context, id uuid.UUID) (*domain.Problem, error)
	OpenProblem(ctx context.Context, user *domain.User, problemID uuid.UUID) (*domain.ProblemOpen, error)
	SubmitFeedback(ctx context.Context, user *domain.User, problemID uuid.UUID, liked bool) error
}

type queryService interface {
	ExecuteQuery(ctx context.Context, user *domain.User, problemID uuid.UUID, query string) (*domain.QueryResult, error)
}

type verificationService interface {
	VerifyAnswer(ctx context.Context, user *domain.User, problemID uuid.UUID, query string) (*domain.VerifyResult, error)
}

// ProblemHandler handles problem-related HTTP requests
type ProblemHandler struct {
	problemService      problemService
	queryService        queryService
	verificationService verificationService
}

// NewProblemHandler creates a new problem handler
func NewProblemHandler(
	problemService problemService,
	queryService queryService,
	verificationService verificationService,
) *ProblemHandler {
	return &ProblemHandler{
		problemService:      problemService,
		queryService:        queryService,
		verificationService: verificationService,
	}
}

// GetProblem returns a specific problem by ID
// GET /api/problems/:id
func (h *ProblemHandler) GetProblem(c *gin.Context) {
	id, ok := parseID(c, "Invalid problem ID")
	if !ok {
		return
	}

	problem, err := h.problemService.GetProblem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve problem")
		return
	}

	c.JSON(http.StatusOK, problem.ToResponse())
}

// OpenProblem starts the caller's clock on a problem
// POST /api/problems/:id/open
func (h *ProblemHandler) OpenProblem(c *gin.Context) {
	user, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "Invalid problem ID")
	if !ok {
		return
	}

	open, err := h.problemService.OpenProblem(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err, "Failed to open problem")
		return
	}
	if open == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	c.JSON(http.StatusOK, open)
}

// ExecuteQuery runs the request body as SQL and returns a preview.
// SQL failures are reported with status 200 and an error field.
// POST /api/problems/:id/query
func (h *ProblemHandler) ExecuteQuery(c *gin.Context) {
	user, id, query, ok := h.sqlRequest(c)
	if !ok {
		return
	}

	result, err := h.queryService.ExecuteQuery(c.Request.Context(), user, id, query)
	if err != nil {
		if qe, ok := domain.AsQueryError(err); ok {
			middleware.SetSandboxOutcome(c, middleware.OutcomeSQLError)
			c.JSON(http.StatusOK, gin.H{
				"error": qe.Message,
			})
			return
		}
		respondError(c, err, "Failed to execute query")
		return
	}

	middleware.SetSandboxOutcome(c, middleware.OutcomeOK)
	c.JSON(http.StatusOK, result)
}

// VerifyAnswer judges the request body against the problem's solution
// POST /api/problems/:id/verify
func (h *ProblemHandler) VerifyAnswer(c *gin.Context) {
	user, id, query, ok := h.sqlRequest(c)
	if !ok {
		return
	}

	result, err := h.verificationService.VerifyAnswer(c.Request.Context(), user, id, query)
	if err != nil {
		if qe, ok := domain.AsQueryError(err); ok {
			middleware.SetSandboxOutcome(c, middleware.OutcomeSQLError)
			c.JSON(http.StatusOK, gin.H{
				"error": qe.Message,
			})
			return
		}
		respondError(c, err, "Failed to verify answer")
		return
	}

	if result.Correct {
		middleware.SetSandboxOutcome(c, middleware.OutcomeCorrect)
	} else {
		middleware.SetSandboxOutcome(c, middleware.OutcomeIncorrect)
	}
	c.JSON(http.StatusOK, result)
}

// SubmitFeedback records a like or dislike
// POST /api/problems/:id/feedback?liked=true
func (h *ProblemHandler) SubmitFeedback(c *gin.Context) {
	user, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "Invalid problem ID")
	if !ok {
		return
	}

	liked, err := strconv.ParseBool(c.Query("liked"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "liked must be true or false",
		})
		return
	}

	if err := h.problemService.SubmitFeedback(c.Request.Context(), user, id, liked); err != nil {
		respondError(c, err, "Failed to record feedback")
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// sqlRequest reads the caller, the problem id and the raw SQL body
func (h *ProblemHandler) sqlRequest(c *gin.Context) (*domain.User, uuid.UUID, string, bool) {
	user, ok := middleware.RequireUser(c)
	if !ok {
		return nil, uuid.Nil, "", false
	}
	id, ok := parseID(c, "Invalid problem ID")
	if !ok {
		return nil, uuid.Nil, "", false
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Request body too large or unreadable",
		})
		return nil, uuid.Nil, "", false
	}
	query := string(body)
	if strings.TrimSpace(query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query is required",
		})
		return nil, uuid.Nil, "", false
	}
	return user, id, query, true
}
