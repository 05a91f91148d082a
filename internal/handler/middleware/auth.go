package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"edupass/internal/domain/actor"
	"edupass/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// TokenValidator abstracts the platform token check for tests.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Claims, error)
}

type AuthMiddleware struct {
	tokenValidator TokenValidator
}

const ctxActorKey = "actor"

func NewAuthMiddleware(tokenValidator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		claims, err := m.tokenValidator.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		role, err := actor.NewRole(claims.Role)
		if err != nil {
			slog.Warn("Token carries unknown role", "role", claims.Role)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxActorKey, actor.Actor{
			ID:            claims.UserID,
			InstitutionID: claims.InstitutionID,
			Role:          role,
		})
		c.Set("jwt_claims", map[string]any{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})
		c.Next()
	}
}

// RequireRole narrows an authenticated route to the given roles.
func (m *AuthMiddleware) RequireRole(roles ...actor.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := GetActor(c)
		if !ok {
			// Unexpected error: should be used after RequireAuth()
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			c.Abort()
			return
		}

		for _, role := range roles {
			if a.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
		c.Abort()
	}
}

func GetActor(c *gin.Context) (actor.Actor, bool) {
	value, exists := c.Get(ctxActorKey)
	if !exists {
		return actor.Actor{}, false
	}

	a, ok := value.(actor.Actor)
	return a, ok
}
