package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	require.NotNil(t, cfg)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gigbook_db", cfg.Database.Name)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Reservation.DefaultHoldDuration)
	assert.Equal(t, 5, cfg.Reservation.WorkerPoolSize)
	assert.Equal(t, 1, cfg.Reservation.ConflictRetries)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "booking-status-jobs", cfg.Kafka.StatusJobTopic)
	assert.Equal(t, "booking-status-jobs-dlq", cfg.Kafka.DeadLetterTopic)
	assert.Contains(t, cfg.Database.DSN, "dbname=gigbook_db")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RESERVATION_WORKER_POOL_SIZE", "8")
	t.Setenv("RESERVATION_HOLD_DURATION", "5m")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 8, cfg.Reservation.WorkerPoolSize)
	assert.Equal(t, 5*time.Minute, cfg.Reservation.DefaultHoldDuration)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("RESERVATION_WORKER_POOL_SIZE", "not-a-number")
	t.Setenv("RESERVATION_SWEEP_INTERVAL", "soon")

	cfg := Load()

	assert.Equal(t, 5, cfg.Reservation.WorkerPoolSize)
	assert.Equal(t, time.Minute, cfg.Reservation.SweepInterval)
}

func TestModeHelpers(t *testing.T) {
	os.Unsetenv("GIN_MODE")
	cfg := Load()
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	t.Setenv("GIN_MODE", "release")
	cfg = Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
}
