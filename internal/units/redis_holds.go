package units

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gigbook/internal/shared/constants"
)

// HoldCache mirrors live unit locks in Redis so browse traffic can see holds
// without touching Postgres. The Postgres conditional write in the Repository
// stays the source of truth; the cache is advisory and expires on its own.
type HoldCache struct {
	redis *redis.Client
}

// NewHoldCache creates a new hold cache handler
func NewHoldCache(redisClient *redis.Client) *HoldCache {
	return &HoldCache{
		redis: redisClient,
	}
}

// Lua script for recording a multi-unit hold atomically - either every unit
// key is written or none are
const luaRecordHold = `
-- KEYS[1] = hold_id (booking id)
-- ARGV[1] = session_id
-- ARGV[2] = ttl_seconds
-- ARGV[3..N] = unit_ids

local hold_id = KEYS[1]
local session_id = ARGV[1]
local ttl = tonumber(ARGV[2])

-- Refuse if any unit already carries a live hold
for i = 3, #ARGV do
    local unit_key = "unit_hold:" .. ARGV[i]
    if redis.call("EXISTS", unit_key) == 1 then
        return {0, ARGV[i]}
    end
end

local hold_units_key = "hold_units:" .. hold_id

for i = 3, #ARGV do
    local unit_key = "unit_hold:" .. ARGV[i]
    redis.call("SETEX", unit_key, ttl, session_id .. ":" .. hold_id)
    redis.call("SADD", hold_units_key, ARGV[i])
end

redis.call("EXPIRE", hold_units_key, ttl)

return {1, "ok"}
`

// Lua script for dropping a hold and all of its unit keys
const luaDropHold = `
-- KEYS[1] = hold_id
local hold_id = KEYS[1]
local hold_units_key = "hold_units:" .. hold_id

local unit_ids = redis.call("SMEMBERS", hold_units_key)
for i = 1, #unit_ids do
    redis.call("DEL", "unit_hold:" .. unit_ids[i])
end
redis.call("DEL", hold_units_key)

return #unit_ids
`

// RecordHold writes the hold for all units atomically. A failure here only
// degrades read freshness, so callers may log and continue.
func (h *HoldCache) RecordHold(ctx context.Context, holdID string, sessionID string, unitIDs []uuid.UUID, ttl time.Duration) error {
	if h.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	keys := []string{holdID}
	args := []interface{}{
		sessionID,
		strconv.Itoa(int(ttl.Seconds())),
	}
	for _, unitID := range unitIDs {
		args = append(args, unitID.String())
	}

	result, err := h.redis.EvalSha(ctx, luaRecordHold, keys, args...).Result()
	if err != nil {
		// If script is not loaded, try to load and execute
		result, err = h.redis.Eval(ctx, luaRecordHold, keys, args...).Result()
		if err != nil {
			return fmt.Errorf("failed to record unit hold: %w", err)
		}
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) != 2 {
		return fmt.Errorf("unexpected result format from hold script")
	}
	success, ok := resultArray[0].(int64)
	if !ok {
		return fmt.Errorf("invalid success flag in hold script result")
	}
	if success == 0 {
		if conflictUnit, ok := resultArray[1].(string); ok {
			return fmt.Errorf("unit already held: %s", conflictUnit)
		}
		return fmt.Errorf("failed to record hold")
	}
	return nil
}

// DropHold removes the hold and returns how many unit keys were cleared
func (h *HoldCache) DropHold(ctx context.Context, holdID string) (int, error) {
	if h.redis == nil {
		return 0, fmt.Errorf("redis client not available")
	}

	result, err := h.redis.EvalSha(ctx, luaDropHold, []string{holdID}).Result()
	if err != nil {
		result, err = h.redis.Eval(ctx, luaDropHold, []string{holdID}).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to drop unit hold: %w", err)
		}
	}

	cleared, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result format from drop script")
	}
	return int(cleared), nil
}

// HeldBy returns the "session:hold" value for a unit's live hold, or empty
// string when no hold exists.
func (h *HoldCache) HeldBy(ctx context.Context, unitID uuid.UUID) (string, error) {
	if h.redis == nil {
		return "", fmt.Errorf("redis client not available")
	}

	val, err := h.redis.Get(ctx, constants.KEY_PREFIX_UNIT_HOLD+unitID.String()).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read unit hold: %w", err)
	}
	return val, nil
}

// PreloadScripts loads the Lua scripts into Redis for better performance
func (h *HoldCache) PreloadScripts(ctx context.Context) error {
	if h.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	if _, err := h.redis.ScriptLoad(ctx, luaRecordHold).Result(); err != nil {
		return fmt.Errorf("failed to load hold script: %w", err)
	}
	if _, err := h.redis.ScriptLoad(ctx, luaDropHold).Result(); err != nil {
		return fmt.Errorf("failed to load drop script: %w", err)
	}
	return nil
}
