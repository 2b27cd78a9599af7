package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// This file centralizes the Redis cache keys and TTL values used across the
// application. Pattern: gigbook:{module}:{operation}:{identifier}:{params?}

const (
	CACHE_PREFIX = "gigbook"
)

// ================== CACHE TTL DURATIONS ==================

// Availability answers age out fast; capacity moves with every reservation.
const (
	TTL_AVAILABILITY_CHECK = 2 * time.Minute
	TTL_ARTIST_SEARCH      = 1 * time.Minute
)

// Booking reads tolerate slightly stale data between status flips.
const (
	TTL_BOOKING_DETAIL = 5 * time.Minute
	TTL_USER_BOOKINGS  = 5 * time.Minute
)

// ================== AVAILABILITY MODULE ==================

const (
	CACHE_KEY_AVAILABILITY  = CACHE_PREFIX + ":availability" // + :type:id:qty:window
	CACHE_KEY_ARTIST_SEARCH = CACHE_PREFIX + ":availability:artists:"
)

// ================== BOOKINGS MODULE ==================

const (
	CACHE_KEY_BOOKING_DETAIL = CACHE_PREFIX + ":bookings:detail:uuid:" // + booking-id
	CACHE_KEY_USER_BOOKINGS  = CACHE_PREFIX + ":bookings:user:uuid:"   // + user-id
)

// ================== UNIT HOLDS ==================

// Hold keys are written by Lua scripts, not through the cache service, so
// only the prefixes live here.
const (
	KEY_PREFIX_UNIT_HOLD  = "unit_hold:"  // + unit-id
	KEY_PREFIX_HOLD_UNITS = "hold_units:" // + hold-id
)

// ================== RATE LIMITING ==================

const (
	KEY_PREFIX_RATELIMIT = CACHE_PREFIX + ":ratelimit:" // + client-ip:limit-type
)

// ================== CACHE INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_ARTIST_SEARCH = CACHE_KEY_ARTIST_SEARCH + "*"
)

// ================== HELPER FUNCTIONS ==================

// BuildAvailabilityKey constructs the cache key for one resource check.
// Example: "gigbook:availability:ARTIST:uuid:1:2026-07-01 18-22"
func BuildAvailabilityKey(resourceType, resourceID string, quantity int, windowKey string) string {
	return fmt.Sprintf("%s:%s:%s:%d:%s", CACHE_KEY_AVAILABILITY, resourceType, resourceID, quantity, windowKey)
}

// BuildArtistSearchKey constructs the cache key for one artist search window
func BuildArtistSearchKey(windowKey string) string {
	return CACHE_KEY_ARTIST_SEARCH + windowKey
}

// BuildAvailabilityPattern matches every cached check for one resource
func BuildAvailabilityPattern(resourceType, resourceID string) string {
	return fmt.Sprintf("%s:%s:%s:*", CACHE_KEY_AVAILABILITY, resourceType, resourceID)
}
