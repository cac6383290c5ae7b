package middleware

import (
	"context"
	"strings"

	"github.com/Baaaki/blog-platform/internal/apperr"
	"github.com/Baaaki/blog-platform/internal/policy"
	"github.com/Baaaki/blog-platform/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const viewerKey = "viewer"

// Authenticator resolves a bearer access token to a viewer.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (policy.Viewer, error)
}

// AuthMiddleware identifies the caller from an optional bearer token.
// Requests without an Authorization header continue as anonymous; a header
// that is malformed or carries an invalid token ends the request with 401.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(viewerKey, policy.Anonymous())
			c.Next()
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			logger.Log.Debug("Malformed authorization header",
				zap.String("ip", c.ClientIP()),
			)
			_ = c.Error(apperr.ErrTokenNotValid)
			c.Abort()
			return
		}

		viewer, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(tokenString))
		if err != nil {
			logger.Log.Debug("Bearer token rejected",
				zap.String("ip", c.ClientIP()),
				zap.Error(err),
			)
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(viewerKey, viewer)
		c.Next()
	}
}

// ViewerFrom returns the viewer set by AuthMiddleware, anonymous when unset.
func ViewerFrom(c *gin.Context) policy.Viewer {
	if v, ok := c.Get(viewerKey); ok {
		if viewer, ok := v.(policy.Viewer); ok {
			return viewer
		}
	}
	return policy.Anonymous()
}
