package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DATABASE", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("SLACK_CHANNEL_HOSTEL", "")
	t.Setenv("SLACK_CHANNEL_COLLEGE", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sst_resolve", cfg.DB.Database)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "#tickets-hostel", cfg.Slack.HostelChannel)
	assert.Equal(t, "#tickets-college", cfg.Slack.CollegeChannel)
	assert.Empty(t, cfg.KafkaBrokers)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SMTP_SECURE", "true")
	t.Setenv("SMTP_USER", "bot@example.com")
	t.Setenv("SMTP_FROM", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 3, cfg.Session.RedisDB)
	assert.True(t, cfg.SMTP.Secure)
	assert.Equal(t, "bot@example.com", cfg.SMTP.From)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("SMTP_PORT", "abc")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		cfg := &Config{}
		cfg.DB.Host, cfg.DB.Database = "localhost", "db"
		cfg.Session.Backend = "etcd"
		assert.ErrorContains(t, cfg.Validate(), "SESSION_BACKEND")
	})
	t.Run("production requires password", func(t *testing.T) {
		cfg := &Config{AppEnv: "production"}
		cfg.DB.Host, cfg.DB.Database = "localhost", "db"
		cfg.Session.Backend = "memory"
		assert.ErrorContains(t, cfg.Validate(), "DB_PASSWORD")
	})
}

func TestDatabaseURLEscapesPassword(t *testing.T) {
	cfg := &Config{}
	cfg.DB.User, cfg.DB.Password = "u", "p@ss w"
	cfg.DB.Host, cfg.DB.Port, cfg.DB.Database, cfg.DB.SSLMode = "h", "5432", "d", "disable"
	assert.Equal(t, "postgres://u:p%40ss+w@h:5432/d?sslmode=disable", cfg.DatabaseURL())
}
