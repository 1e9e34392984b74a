package config

import (
	"fmt"
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

	// JWT configuration
	JWT JWTConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string

	// Ticket issuance and delivery
	Issuance IssuanceConfig
	Delivery DeliveryConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Email    EmailConfig
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

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	CacheTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	PublicRequests  int           `json:"public_requests"`
	BookingRequests int           `json:"booking_requests"`
	WebhookRequests int           `json:"webhook_requests"`
	CheckinRequests int           `json:"checkin_requests"`
	AdminRequests   int           `json:"admin_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// IssuanceConfig controls credential rendering and the booking lifecycle jobs
type IssuanceConfig struct {
	DefaultTimezone string
	FooterText      string
	ReservationTTL  time.Duration
	ExpiryInterval  time.Duration
	RepairInterval  time.Duration
	RepairGrace     time.Duration
}

// DeliveryConfig selects how rendered tickets reach attendees.
// Backend is "pool" (in-process workers) or "kafka".
type DeliveryConfig struct {
	Backend      string
	Workers      int
	QueueSize    int
	MaxRetries   int
	RetryBackoff time.Duration
}

// KafkaConfig holds broker settings for the kafka delivery backend
type KafkaConfig struct {
	Brokers       []string
	DeliveryTopic string
	ConsumerGroup string
	ClientID      string
}

// StorageConfig selects where ticket documents are archived.
// Backend is "local", "cloudinary" or "none".
type StorageConfig struct {
	Backend       string
	LocalPath     string
	PublicBaseURL string
	Cloudinary    CloudinaryConfig
}

// CloudinaryConfig holds Cloudinary credentials
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// EmailConfig holds email configuration.
// Mailer is "smtp" or "mock".
type EmailConfig struct {
	Mailer       string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
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
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "ticketpoint_db"),
			User:            getEnv("DB_USER", "ticketpoint_user"),
			Password:        getEnv("DB_PASSWORD", "ticketpoint_password"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			CacheTTL: getDurationEnv("REDIS_CACHE_TTL", 30*time.Second),
		},

		// JWT configuration
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:  getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			BookingRequests: getIntEnv("RATE_LIMIT_BOOKING_REQUESTS", 20),
			WebhookRequests: getIntEnv("RATE_LIMIT_WEBHOOK_REQUESTS", 600),
			CheckinRequests: getIntEnv("RATE_LIMIT_CHECKIN_REQUESTS", 300),
			AdminRequests:   getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 200),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Issuance: IssuanceConfig{
			DefaultTimezone: getEnv("TICKET_DEFAULT_TIMEZONE", "Asia/Jakarta"),
			FooterText:      getEnv("TICKET_FOOTER_TEXT", "© 2025 TicketPoint. All rights reserved."),
			ReservationTTL:  getDurationEnv("RESERVATION_TTL", 30*time.Minute),
			ExpiryInterval:  getDurationEnv("RESERVATION_EXPIRY_INTERVAL", time.Minute),
			RepairInterval:  getDurationEnv("ISSUANCE_REPAIR_INTERVAL", time.Minute),
			RepairGrace:     getDurationEnv("ISSUANCE_REPAIR_GRACE", 2*time.Minute),
		},

		Delivery: DeliveryConfig{
			Backend:      getEnv("DELIVERY_BACKEND", "pool"),
			Workers:      getIntEnv("DELIVERY_WORKERS", 4),
			QueueSize:    getIntEnv("DELIVERY_QUEUE_SIZE", 256),
			MaxRetries:   getIntEnv("DELIVERY_MAX_RETRIES", 3),
			RetryBackoff: getDurationEnv("DELIVERY_RETRY_BACKOFF", 2*time.Second),
		},

		Kafka: KafkaConfig{
			Brokers:       getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			DeliveryTopic: getEnv("KAFKA_DELIVERY_TOPIC", "ticket-deliveries"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "ticketpoint-delivery"),
			ClientID:      getEnv("KAFKA_CLIENT_ID", "ticketpoint-backend"),
		},

		Storage: StorageConfig{
			Backend:       getEnv("TICKET_STORAGE_BACKEND", "local"),
			LocalPath:     getEnv("TICKET_STORAGE_PATH", "./uploads/tickets"),
			PublicBaseURL: getEnv("TICKET_STORAGE_PUBLIC_URL", "/uploads/tickets"),
			Cloudinary: CloudinaryConfig{
				CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
				APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
				APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
				Folder:    getEnv("CLOUDINARY_FOLDER", "tickets"),
			},
		},

		// Email configuration
		Email: EmailConfig{
			Mailer:       getEnv("EMAIL_MAILER", "mock"),
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@ticketpoint.id"),
			FromName:     getEnv("FROM_NAME", "TicketPoint"),
		},
	}

	// Build composite values
	cfg.Database.DSN = getEnv("DATABASE_URL", buildDatabaseDSN(cfg.Database))
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// Validate reports settings that would make the server misbehave at runtime
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Issuance.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid TICKET_DEFAULT_TIMEZONE %q: %w", c.Issuance.DefaultTimezone, err)
	}

	switch c.Delivery.Backend {
	case "pool":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when DELIVERY_BACKEND=kafka")
		}
	default:
		return fmt.Errorf("unknown DELIVERY_BACKEND %q", c.Delivery.Backend)
	}

	switch c.Storage.Backend {
	case "local", "none":
	case "cloudinary":
		cl := c.Storage.Cloudinary
		if cl.CloudName == "" || cl.APIKey == "" || cl.APISecret == "" {
			return fmt.Errorf("cloudinary credentials are required when TICKET_STORAGE_BACKEND=cloudinary")
		}
	default:
		return fmt.Errorf("unknown TICKET_STORAGE_BACKEND %q", c.Storage.Backend)
	}

	switch c.Email.Mailer {
	case "mock":
	case "smtp":
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when EMAIL_MAILER=smtp")
		}
	default:
		return fmt.Errorf("unknown EMAIL_MAILER %q", c.Email.Mailer)
	}

	if c.Delivery.Workers < 1 {
		return fmt.Errorf("DELIVERY_WORKERS must be at least 1")
	}
	if c.Issuance.ReservationTTL <= 0 {
		return fmt.Errorf("RESERVATION_TTL must be positive")
	}

	return nil
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
