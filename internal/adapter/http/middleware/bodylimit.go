package middleware

import (
	"net/http"

	"b2b-wallet/pkg/apperror"
	"b2b-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// MaxBodySize rejects bodies whose declared length exceeds maxBytes with
// REQ_002. Bodies of unknown length are capped while being read, which makes
// JSON binding fail with the same error.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, apperror.ErrBodyTooLarge())
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
