package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityConfig controls the response hardening headers. A zero HSTSMaxAge
// leaves Strict-Transport-Security off, which suits plain-HTTP development.
type SecurityConfig struct {
	HSTSMaxAge     time.Duration
	FrameOptions   string
	ReferrerPolicy string
	ContentPolicy  []string
}

func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSMaxAge:     365 * 24 * time.Hour,
		FrameOptions:   "DENY",
		ReferrerPolicy: "same-origin",
		ContentPolicy:  []string{"default-src 'none'", "frame-ancestors 'none'"},
	}
}

// SecurityHeaders stamps every response with the configured headers. Patient
// data must never land in a shared cache, so responses are also marked no-store.
func SecurityHeaders(config SecurityConfig) gin.HandlerFunc {
	headers := [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"Cache-Control", "no-store"},
	}
	if config.FrameOptions != "" {
		headers = append(headers, [2]string{"X-Frame-Options", config.FrameOptions})
	}
	if config.ReferrerPolicy != "" {
		headers = append(headers, [2]string{"Referrer-Policy", config.ReferrerPolicy})
	}
	if len(config.ContentPolicy) > 0 {
		headers = append(headers, [2]string{"Content-Security-Policy", strings.Join(config.ContentPolicy, "; ")})
	}
	if config.HSTSMaxAge > 0 {
		hsts := fmt.Sprintf("max-age=%d; includeSubDomains", int(config.HSTSMaxAge.Seconds()))
		headers = append(headers, [2]string{"Strict-Transport-Security", hsts})
	}

	return func(c *gin.Context) {
		for _, h := range headers {
			c.Header(h[0], h[1])
		}
		c.Next()
	}
}
