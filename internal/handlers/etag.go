package handlers

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"escaperooms-directory/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/blake2b"
)

// writeJSON encodes body once, tags it with a weak ETag and answers 304 when
// the client already holds the same representation.
func writeJSON(c *gin.Context, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to encode response: path=%s, error=%v", c.Request.URL.Path, err)
		_ = c.Error(err)
		return
	}

	tag := etag(data)
	c.Header("ETag", tag)
	if status == http.StatusOK && matchesETag(c.GetHeader("If-None-Match"), tag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

func etag(data []byte) string {
	sum := blake2b.Sum256(data)
	return `W/"` + hex.EncodeToString(sum[:16]) + `"`
}

func matchesETag(header, tag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == strings.TrimPrefix(tag, "W/") {
			return true
		}
	}
	return false
}
