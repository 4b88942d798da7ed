package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SafeHeader sets browser hardening headers on every response. Resume
// downloads and API payloads are private to the caller, so nothing is cached.
// The swagger UI needs inline scripts and keeps the default CSP.
func SafeHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		h.Del("X-Powered-By")
		if !strings.HasPrefix(c.Request.URL.Path, "/swagger") {
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		}
		if gin.Mode() == gin.ReleaseMode {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}

		c.Next()
	}
}
