package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/response"
	"github.com/sangkips/atelier-api/pkg/utils"
)

// AuthMiddleware verifies the bearer token and stores the caller in the Gin context
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_roles", claims.Roles)
		if claims.BranchID != nil {
			c.Set("token_branch_id", *claims.BranchID)
		}

		c.Next()
	}
}

// RequireRole creates a middleware that requires one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !hasAnyRole(c, roles...) {
			response.Forbidden(c, "Insufficient role privileges")
			c.Abort()
			return
		}

		c.Next()
	}
}

func hasAnyRole(c *gin.Context, roles ...string) bool {
	userRoles, exists := c.Get("user_roles")
	if !exists {
		return false
	}
	list, ok := userRoles.([]string)
	if !ok {
		return false
	}

	for _, userRole := range list {
		for _, required := range roles {
			if userRole == required {
				return true
			}
		}
	}
	return false
}
