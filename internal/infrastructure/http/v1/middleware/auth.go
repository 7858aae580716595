package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"corseg/internal/core/apperror"
	appctx "corseg/internal/core/context"
)

// JWTValidator validates JWT tokens and extracts user context.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth middleware validates the Bearer token and injects the user context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := extractUser(c, validator)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", user.UserID)

		c.Next()
	}
}

// OptionalAuth validates the token when present but lets anonymous
// requests through.
func OptionalAuth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		user, err := extractUser(c, validator)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", user.UserID)

		c.Next()
	}
}

// RequireRole guards a route group behind a role. Admin users pass
// every role check.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !appctx.HasRole(c.Request.Context(), role) {
			_ = c.Error(apperror.NewForbidden("insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAnyRole passes when the user holds at least one of the roles.
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, role := range roles {
			if appctx.HasRole(c.Request.Context(), role) {
				c.Next()
				return
			}
		}
		_ = c.Error(apperror.NewForbidden("insufficient role"))
		c.Abort()
	}
}

func extractUser(c *gin.Context, validator JWTValidator) (*appctx.UserContext, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, apperror.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, apperror.NewUnauthorized("invalid authorization header format")
	}

	user, err := validator.ValidateToken(parts[1])
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired token")
	}

	return user, nil
}
