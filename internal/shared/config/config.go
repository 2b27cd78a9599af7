package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Kafka configuration
	Kafka KafkaConfig

	// Reservation engine configuration
	Reservation ReservationConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// TTL values for different operations
	HoldTTL     time.Duration
	CacheTTL    time.Duration
	TempDataTTL time.Duration
}

// KafkaConfig holds Kafka configuration for the status-job queue
type KafkaConfig struct {
	Brokers         []string
	StatusJobTopic  string
	DeadLetterTopic string
	ConsumerGroup   string
	MaxRetries      int
	RetryBackoff    time.Duration
}

// ReservationConfig holds tunables for the reservation engine
type ReservationConfig struct {
	// DefaultHoldDuration is how long a pending reservation keeps its lock
	// when the caller does not specify one.
	DefaultHoldDuration time.Duration
	// MaxHoldDuration caps caller-supplied hold durations.
	MaxHoldDuration time.Duration
	// WorkerPoolSize bounds the number of concurrent status-job handlers.
	WorkerPoolSize int
	// SweepInterval is how often the sweeper scans for stale locks and
	// overdue pending bookings.
	SweepInterval time.Duration
	// ConflictRetries is how many times a reservation attempt is retried
	// after a lost optimistic-concurrency race.
	ConflictRetries int
	// JobPollBackoff is the requeue delay for status jobs that are not due yet.
	JobPollBackoff time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled                 bool          `json:"enabled"`
	WindowDuration          time.Duration `json:"window_duration"`
	DefaultRequests         int           `json:"default_requests"`
	AvailabilityRequests    int           `json:"availability_requests"`
	BookingRequests         int           `json:"booking_requests"`
	BookingCriticalRequests int           `json:"booking_critical_requests"`
	AdminRequests           int           `json:"admin_requests"`
	HealthRequests          int           `json:"health_requests"`
	WhitelistedIPs          []string      `json:"whitelisted_ips"`
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "gigbook_db"),
			User:     getEnv("DB_USER", "gigbook_user"),
			Password: getEnv("DB_PASSWORD", "gigbook_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			// TTL configurations with defaults
			HoldTTL:     getDurationEnv("REDIS_HOLD_TTL", 10*time.Minute),
			CacheTTL:    getDurationEnv("REDIS_CACHE_TTL", 30*time.Second),
			TempDataTTL: getDurationEnv("REDIS_TEMP_DATA_TTL", 5*time.Minute),
		},

		// Kafka configuration
		Kafka: KafkaConfig{
			Brokers:         getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			StatusJobTopic:  getEnv("KAFKA_STATUS_JOB_TOPIC", "booking-status-jobs"),
			DeadLetterTopic: getEnv("KAFKA_DEAD_LETTER_TOPIC", "booking-status-jobs-dlq"),
			ConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "gigbook-status-workers"),
			MaxRetries:      getIntEnv("KAFKA_MAX_RETRIES", 3),
			RetryBackoff:    getDurationEnv("KAFKA_RETRY_BACKOFF", time.Second),
		},

		// Reservation engine configuration
		Reservation: ReservationConfig{
			DefaultHoldDuration: getDurationEnv("RESERVATION_HOLD_DURATION", 10*time.Minute),
			MaxHoldDuration:     getDurationEnv("RESERVATION_MAX_HOLD_DURATION", 30*time.Minute),
			WorkerPoolSize:      getIntEnv("RESERVATION_WORKER_POOL_SIZE", 5),
			SweepInterval:       getDurationEnv("RESERVATION_SWEEP_INTERVAL", time.Minute),
			ConflictRetries:     getIntEnv("RESERVATION_CONFLICT_RETRIES", 1),
			JobPollBackoff:      getDurationEnv("RESERVATION_JOB_POLL_BACKOFF", 30*time.Second),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:                 getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:          getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests:         getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			AvailabilityRequests:    getIntEnv("RATE_LIMIT_AVAILABILITY_REQUESTS", 100),
			BookingRequests:         getIntEnv("RATE_LIMIT_BOOKING_REQUESTS", 30),
			BookingCriticalRequests: getIntEnv("RATE_LIMIT_BOOKING_CRITICAL_REQUESTS", 10),
			AdminRequests:           getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 200),
			HealthRequests:          getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 300),
			WhitelistedIPs:          getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
