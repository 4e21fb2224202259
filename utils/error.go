package utils

import (
	"net/http"

	"agendabot/utils/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code,omitempty"`
}

// ErrorHandler recovers panics in later handlers and answers 500.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Unhandled panic", zap.Any("panic", r), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:     "An unexpected error occurred. Please try again later.",
					ErrorCode: "internal",
				})
			}
		}()
		c.Next()
	}
}

// AbortWithError answers status with err's user-safe message. Errors without
// an apperr kind are replaced by fallback so internals never leak.
func AbortWithError(c *gin.Context, status int, err error, fallback string) {
	resp := ErrorResponse{Error: fallback}
	if kind := apperr.KindOf(err); kind != "" {
		resp = ErrorResponse{Error: apperr.Message(err), ErrorCode: string(kind)}
	}
	c.AbortWithStatusJSON(status, resp)
}
