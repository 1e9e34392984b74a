package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// Pattern: ticketpoint:{module}:{operation}:{identifier}

// ================== CACHE TTL DURATIONS ==================

// Semi-Static Data (Medium TTL: changes occasionally)
const (
	TTL_SEMI_STATIC_MEDIUM = 2 * time.Hour // 2 hours - for event details
)

// Highly Dynamic (Micro TTL: real-time sensitive)
const (
	TTL_REALTIME_SHORT = 30 * time.Second // 30 seconds - for live tier availability
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "ticketpoint"
)

// ================== TIERS MODULE ==================

const (
	CACHE_KEY_EVENT_TIERS = CACHE_PREFIX + ":tiers:by_event:uuid:" // + event-id
)

// ================== RATE LIMIT MODULE ==================

const (
	RATE_LIMIT_PREFIX = CACHE_PREFIX + ":rate_limit:" // + type:ip
)

// BuildEventTiersKey is the cache key holding an event's tier availability
func BuildEventTiersKey(eventID string) string {
	return CACHE_KEY_EVENT_TIERS + eventID
}

// BuildRateLimitKey is the sorted-set key of one client's sliding window
func BuildRateLimitKey(limitType, clientIP string) string {
	return fmt.Sprintf("%s%s:%s", RATE_LIMIT_PREFIX, limitType, clientIP)
}
