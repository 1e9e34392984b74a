package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"ticketpoint/internal/shared/utils/response"
	"ticketpoint/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware enforces the limits. Health and metrics probes are exempt and a
// Redis outage lets requests through.
func Middleware(rateLimiter *RateLimiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" || isProbe(path) {
			c.Next()
			return
		}

		clientIP := getClientIP(c)
		limitType := getRateLimitType(c.Request.Method, path)

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			log.Warn("Rate limit check failed", "error", err.Error(), "path", path)
			c.Next()
			return
		}

		// Set rate limit headers
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		// Check if rate limited
		if !result.Allowed {
			log.LogRateLimitExceeded(c.Request.Context(), clientIP, path)
			response.Abort(c, http.StatusTooManyRequests,
				"Rate limit exceeded", map[string]interface{}{
					"limit":      result.Limit,
					"reset_time": result.ResetTime,
				})
			return
		}

		c.Next()
	}
}

// getRateLimitType classifies a route pattern. Operator scans share one
// budget, the payment gateway another.
func getRateLimitType(method, path string) RateLimitType {
	switch {
	case strings.HasSuffix(path, "/payments/notifications"):
		return RateLimitTypeWebhook

	case strings.Contains(path, "/tickets/") && method != http.MethodPost,
		strings.Contains(path, "/tickets/attendances"):
		return RateLimitTypeCheckin

	case strings.Contains(path, "/tickets/booking"),
		strings.Contains(path, "/bookings/"):
		return RateLimitTypeBooking

	case strings.Contains(path, "/tiers") && method == http.MethodGet:
		return RateLimitTypePublic

	case strings.Contains(path, "/tiers"):
		return RateLimitTypeAdmin

	default:
		return RateLimitTypeDefault
	}
}

func isProbe(path string) bool {
	switch path {
	case "/health", "/ping", "/status", "/metrics":
		return true
	}
	return false
}

// extracts real client IP
func getClientIP(c *gin.Context) string {
	// Check X-Forwarded-For header
	xForwardedFor := c.GetHeader("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	// Check X-Real-IP header
	xRealIP := c.GetHeader("X-Real-IP")
	if xRealIP != "" {
		if net.ParseIP(xRealIP) != nil {
			return xRealIP
		}
	}

	// Fall back to RemoteAddr
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}

	return ip
}
