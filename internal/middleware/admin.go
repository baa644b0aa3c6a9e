package middleware

import (
	"crypto/subtle"
	"net/http"

	"escaperooms-directory/internal/errors"
	"escaperooms-directory/pkg/logger"

	"github.com/gin-gonic/gin"
)

const AdminTokenHeader = "X-Admin-Token"

// AdminToken guards maintenance routes with a shared secret. An empty token
// disables the routes entirely.
func AdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			abortWithError(c, http.StatusNotFound, errors.ErrCodeNotFound, errors.MsgNotFound)
			return
		}

		given := c.GetHeader(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			logger.GlobalLogger.Warnf("Rejected admin request: path=%s, client_ip=%s", c.Request.URL.Path, c.ClientIP())
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "A valid admin token is required.")
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"message": message,
			"code":    code,
		},
	})
}
