package middleware

import (
	"fmt"
	"net/http"

	"github.com/Baaaki/blog-platform/internal/apperr"
	"github.com/Baaaki/blog-platform/internal/metrics"
	"github.com/Baaaki/blog-platform/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail any    `json:"detail"`
}

// ErrorHandler renders the last error a handler pushed with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperr.From(c.Errors.Last().Err)
		if appErr.Kind == apperr.KindInternal {
			logger.Log.Error("Unhandled error",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(appErr.Err),
			)
		}
		WriteError(c, appErr)
	}
}

// WriteError renders err in the error envelope and counts it.
func WriteError(c *gin.Context, err *apperr.Error) {
	metrics.ObserveError(err.Code)
	c.AbortWithStatusJSON(err.Status(), ErrorResponse{
		Error:  err.Code,
		Detail: err.Detail(),
	})
}

// Recovery turns a panic into a 500 in the error envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.Error("Panic recovered",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		if c.Writer.Written() {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		WriteError(c, apperr.Internal(fmt.Errorf("%v", recovered)))
	})
}
