package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velvet/backend/internal/interfaces/http/dto"
)

// BodyLimit answers 413 when a request declares a body larger than maxBytes.
// Bodies of unknown length are capped while the handler reads them; binding
// then fails with *http.MaxBytesError and HandleValidationError reports 413.
// A non-positive maxBytes disables the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := c.Request.Body
		if maxBytes <= 0 || body == nil || body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			abortTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, body, maxBytes)
		c.Next()
	}
}

func abortTooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size", GetRequestID(c)))
}
