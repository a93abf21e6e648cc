package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// Twilio: исходящие сообщения WhatsApp. Без AccountSID отправка только логируется.
	Twilio struct {
		AccountSID string
		AuthToken  string
		From       string
	}

	Slack struct {
		BotToken       string
		SigningSecret  string
		APIURL         string
		HostelChannel  string
		CollegeChannel string
	}

	SMTP struct {
		Host     string
		Port     int
		Secure   bool
		User     string
		Password string
		From     string
	}

	Session struct {
		Backend       string
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		TTL           time.Duration
	}

	KafkaBrokers     []string
	KafkaTopicTicket string
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:          getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:         firstEnv("APP_PORT", "HTTP_PORT", "8080"),
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		KafkaBrokers:     splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicTicket: getEnv("KAFKA_TOPIC_TICKET", "resolve.tickets"),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "sst_resolve")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Twilio.AccountSID = getEnv("TWILIO_ACCOUNT_SID", "")
	cfg.Twilio.AuthToken = getEnv("TWILIO_AUTH_TOKEN", "")
	cfg.Twilio.From = getEnv("TWILIO_WHATSAPP_FROM", "")

	cfg.Slack.BotToken = getEnv("SLACK_BOT_TOKEN", "")
	cfg.Slack.SigningSecret = getEnv("SLACK_SIGNING_SECRET", "")
	cfg.Slack.APIURL = getEnv("SLACK_API_URL", "")
	cfg.Slack.HostelChannel = getEnv("SLACK_CHANNEL_HOSTEL", "#tickets-hostel")
	cfg.Slack.CollegeChannel = getEnv("SLACK_CHANNEL_COLLEGE", "#tickets-college")

	cfg.SMTP.Host = getEnv("SMTP_HOST", "smtp.gmail.com")
	cfg.SMTP.User = getEnv("SMTP_USER", "")
	cfg.SMTP.Password = getEnv("SMTP_PASS", "")
	cfg.SMTP.From = firstEnv("SMTP_FROM", "SMTP_USER", "")
	cfg.SMTP.Secure = getEnv("SMTP_SECURE", "") == "true"

	cfg.Session.Backend = strings.ToLower(getEnv("SESSION_BACKEND", "memory"))
	cfg.Session.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Session.RedisPassword = getEnv("REDIS_PASSWORD", "")

	var err error
	if cfg.SMTP.Port, err = strconv.Atoi(getEnv("SMTP_PORT", "587")); err != nil {
		return nil, fmt.Errorf("config: SMTP_PORT: %w", err)
	}
	if cfg.Session.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("config: REDIS_DB: %w", err)
	}
	if cfg.Session.TTL, err = time.ParseDuration(getEnv("SESSION_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("config: SESSION_TTL: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Session.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR is required for SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("config: unknown SESSION_BACKEND %q (memory|redis)", c.Session.Backend)
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// SMTPEnabled: без учётных данных письма не отправляются.
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.User != "" && c.SMTP.Password != ""
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitList разбивает "host1:9092,host2:9092" на слайс.
func splitList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
