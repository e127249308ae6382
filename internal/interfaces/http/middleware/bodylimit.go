package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/interfaces/http/dto"
)

// BodyLimitOverride raises or lowers the body limit for paths under PathPrefix
type BodyLimitOverride struct {
	PathPrefix string
	MaxBytes   int64
}

// BodyLimit rejects request bodies larger than maxBytes. The first override
// whose prefix matches the request path wins, so resource uploads can be
// allowed more than JSON payloads.
func BodyLimit(maxBytes int64, overrides ...BodyLimitOverride) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		for _, o := range overrides {
			if strings.HasPrefix(c.Request.URL.Path, o.PathPrefix) {
				limit = o.MaxBytes
				break
			}
		}

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}

		// chunked bodies have no Content-Length
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
