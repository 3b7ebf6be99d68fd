package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/sql-dojo/backend/internal/domain"
)

type stubAuth struct {
	tokens map[string]*domain.User
}

func (s stubAuth) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if u, ok := s.tokens[token]; ok {
		return u, nil
	}
	return nil, domain.ErrInvalidToken
}

func newAuthRouter() (*gin.Engine, *domain.User, *domain.User) {
	gin.SetMode(gin.TestMode)
	user := &domain.User{ID: uuid.New(), Name: "Ada"}
	admin := &domain.User{ID: uuid.New(), Name: "Root", IsAdmin: true}
	auth := stubAuth{tokens: map[string]*domain.User{"user-token": user, "admin-token": admin}}

	r := gin.New()
	api := r.Group("/api", AuthMiddleware(auth))
	api.GET("/me", func(c *gin.Context) {
		u, ok := RequireUser(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": u.ID})
	})
	api.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, user, admin
}

func TestAuthMiddleware(t *testing.T) {
	r, _, _ := newAuthRouter()

	tests := []struct {
		name    string
		path    string
		header  string
		upgrade bool
		want    int
	}{
		{name: "missing header", path: "/api/me", want: http.StatusUnauthorized},
		{name: "wrong scheme", path: "/api/me", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "empty token", path: "/api/me", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "unknown token", path: "/api/me", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid token", path: "/api/me", header: "Bearer user-token", want: http.StatusOK},
		{name: "query token without upgrade", path: "/api/me?access_token=user-token", want: http.StatusUnauthorized},
		{name: "query token on upgrade", path: "/api/me?access_token=user-token", upgrade: true, want: http.StatusOK},
		{name: "participant on admin route", path: "/api/admin", header: "Bearer user-token", want: http.StatusForbidden},
		{name: "admin on admin route", path: "/api/admin", header: "Bearer admin-token", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(AuthorizationHeader, tt.header)
			}
			if tt.upgrade {
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Upgrade", "websocket")
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
