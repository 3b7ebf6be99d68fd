package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sql-dojo/backend/internal/domain"
)

const (
	// AuthorizationHeader is the header key for the JWT token
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for the JWT token
	BearerPrefix = "Bearer "
	// AccessTokenParam carries the token on websocket upgrades, where
	// browsers cannot set headers
	AccessTokenParam = "access_token"
	// UserIDKey is the context key for the user ID
	UserIDKey = "userID"
	// UserKey is the context key for the authenticated user
	UserKey = "user"
)

// Authenticator resolves a bearer token to a user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware creates a new authentication middleware
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, msg := bearerToken(c)
		if msg != "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": msg,
			})
			c.Abort()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		// Set user in context for handlers to use
		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		if isWebsocketUpgrade(c.Request) {
			if token := c.Query(AccessTokenParam); token != "" {
				return token, ""
			}
		}
		return "", "Authorization header is required"
	}

	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return "", "Invalid authorization header format"
	}

	token := strings.TrimPrefix(authHeader, BearerPrefix)
	if token == "" {
		return "", "Token is required"
	}
	return token, ""
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// GetUserID extracts the user ID from the gin context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := userID.(uuid.UUID)
	return id, ok
}

// GetUser extracts the authenticated user from the gin context
func GetUser(c *gin.Context) (*domain.User, bool) {
	user, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	u, ok := user.(*domain.User)
	return u, ok
}

// RequireUser ensures a user is authenticated and returns them
// If not authenticated, it aborts the request
func RequireUser(c *gin.Context) (*domain.User, bool) {
	user, ok := GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		c.Abort()
		return nil, false
	}
	return user, true
}

// RequireAdmin aborts unless the caller is an administrator
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireUser(c)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
