package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, "Asia/Jakarta", cfg.Issuance.DefaultTimezone)
	assert.Equal(t, "pool", cfg.Delivery.Backend)
	assert.Equal(t, "ticket-deliveries", cfg.Kafka.DeliveryTopic)
	assert.Equal(t, 30*time.Minute, cfg.Issuance.ReservationTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Contains(t, cfg.Database.DSN, "dbname=ticketpoint_db")
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("DELIVERY_BACKEND", "kafka")
	t.Setenv("RESERVATION_TTL", "15m")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/tp")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.GetServerAddress())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 15*time.Minute, cfg.Issuance.ReservationTTL)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "postgres://u:p@db:5432/tp", cfg.Database.DSN)
	require.NoError(t, cfg.Validate())
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DELIVERY_WORKERS", "many")
	t.Setenv("RESERVATION_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 4, cfg.Delivery.Workers)
	assert.Equal(t, 30*time.Minute, cfg.Issuance.ReservationTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad timezone", func(c *Config) { c.Issuance.DefaultTimezone = "Mars/Olympus" }},
		{"unknown delivery backend", func(c *Config) { c.Delivery.Backend = "pigeon" }},
		{"cloudinary without credentials", func(c *Config) { c.Storage.Backend = "cloudinary" }},
		{"smtp without host", func(c *Config) { c.Email.Mailer = "smtp" }},
		{"no workers", func(c *Config) { c.Delivery.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
