package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps the request body with http.MaxBytesReader. perRoute
// overrides the cap for specific registered routes (keyed by c.FullPath(),
// e.g. "/api/admin/upload"). Reads past the cap fail with
// *http.MaxBytesError, which handlers map to 413. Requests that declare a
// larger Content-Length are rejected upfront.
func BodyLimit(maxBytes int64, perRoute map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if n, ok := perRoute[c.FullPath()]; ok {
			limit = n
		}
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"request_id": GetRequestID(c),
				"code":       "payload_too_large",
				"message":    "request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
