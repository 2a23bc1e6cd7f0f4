package middleware

import (
	"net/http"

	"heather-backend/internal/delivery/http/response"
	"heather-backend/pkg/apperror"
	"heather-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Only *apperror.AppError messages reach the client; anything else is logged
// and answered with a generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if appErr, ok := apperror.As(err); ok {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Get().Error("request failed",
					"request_id", c.GetString(RequestIDKey),
					"path", c.FullPath(),
					"status", appErr.Code,
					"error", appErr,
				)
			}
			response.Error(c, appErr.Code, appErr.Message, nil)
			return
		}

		logger.Get().Error("internal server error",
			"request_id", c.GetString(RequestIDKey),
			"path", c.FullPath(),
			"error", err,
		)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
