package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thesheunit/storefront/internal/config"
)

// SecurityHeaders adds security headers to responses. API responses carry
// per-session carts and wishlists and must never be cached by intermediaries.
func SecurityHeaders(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		// invoice previews ship their stylesheet inline
		c.Header("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		c.Header("Server", cfg.App.Name)
		if cfg.IsProduction() {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Header("Cache-Control", "no-store")
		}
		c.Next()
	}
}
