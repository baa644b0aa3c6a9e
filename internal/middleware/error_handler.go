package middleware

import (
	"net/http"
	"strconv"

	"escaperooms-directory/internal/errors"
	"escaperooms-directory/pkg/logger"

	"github.com/gin-gonic/gin"
)

const retryAfterSeconds = 30

// ErrorHandler catches errors and returns standardized responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr := errors.MapError(err)

		// Log technical details
		logger.GlobalLogger.Errorf("Request failed: request_id=%s, path=%s, method=%s, client_ip=%s, status=%d, error=%s",
			c.GetString(RequestIDKey),
			c.Request.URL.Path,
			c.Request.Method,
			c.ClientIP(),
			appErr.HTTPStatus,
			appErr.TechnicalMessage)

		if appErr.HTTPStatus == http.StatusServiceUnavailable && errors.IsRetryable(err) {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		}
		abortWithError(c, appErr.HTTPStatus, appErr.Code, appErr.UserMessage)
	}
}
