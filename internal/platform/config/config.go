// Package config reads process configuration from the environment. An
// optional .env file is loaded first; empty values fall back to defaults that
// run the whole service in memory.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server        Server
	Log           Log
	Postgres      Postgres
	Redis         RedisConfig
	Kafka         Kafka
	SMS           SMS
	Lookup        Lookup
	Notifications Notifications
	Audit         Audit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	Environment   string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	// AdminToken guards /admin routes. Empty closes them.
	AdminToken      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type Log struct {
	Level  string
	Format string
}

// Postgres is optional; without a URL quotes and the catalog stay in memory.
type Postgres struct {
	URL string
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Kafka struct {
	Brokers     []string
	StatusTopic string
}

// SMS without a BaseURL logs messages instead of sending them.
type SMS struct {
	BaseURL string
	APIKey  string
	Sender  string
	Timeout time.Duration
}

type Lookup struct {
	Debounce        time.Duration
	PostalMinLength int
	MakeMinLength   int
	CacheTTL        time.Duration
}

type Notifications struct {
	AutoDismiss    time.Duration
	DocumentStatus string
}

type Audit struct {
	AsyncBuffer          int
	OperationsSampleRate float64
}

// IsProduction reports whether dev defaults must be refused.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds the configuration so main stays lean.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Server: Server{
			Addr:            getenv("BROKERDESK_ADDR", ":8080"),
			Environment:     getenv("ENVIRONMENT", "development"),
			JWTSigningKey:   getenv("JWT_SIGNING_KEY", devSigningKey),
			JWTIssuer:       getenv("JWT_ISSUER", "brokerdesk"),
			JWTAudience:     getenv("JWT_AUDIENCE", "brokerdesk-backoffice"),
			AdminToken:      os.Getenv("ADMIN_API_TOKEN"),
			RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: Log{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
		Postgres: Postgres{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:     splitList(os.Getenv("KAFKA_BROKERS")),
			StatusTopic: getenv("KAFKA_STATUS_TOPIC", "quote.status-changed"),
		},
		SMS: SMS{
			BaseURL: os.Getenv("SMS_BASE_URL"),
			APIKey:  os.Getenv("SMS_API_KEY"),
			Sender:  getenv("SMS_SENDER", "Brokerdesk"),
			Timeout: getDuration("SMS_TIMEOUT", 5*time.Second),
		},
		Lookup: Lookup{
			Debounce:        getDuration("LOOKUP_DEBOUNCE", 300*time.Millisecond),
			PostalMinLength: getInt("LOOKUP_POSTAL_MIN_LENGTH", 4),
			MakeMinLength:   getInt("LOOKUP_MAKE_MIN_LENGTH", 2),
			CacheTTL:        getDuration("LOOKUP_CACHE_TTL", 10*time.Minute),
		},
		Notifications: Notifications{
			AutoDismiss:    getDuration("NOTIFICATION_AUTO_DISMISS", 5*time.Second),
			DocumentStatus: getenv("NOTIFICATION_DOCUMENT_STATUS", "Document disponible"),
		},
		Audit: Audit{
			AsyncBuffer:          getInt("AUDIT_ASYNC_BUFFER", 256),
			OperationsSampleRate: getFloat("AUDIT_OPERATIONS_SAMPLE_RATE", 1),
		},
	}
}

// UsesDevSigningKey reports whether the built-in JWT key is in use.
func (c Config) UsesDevSigningKey() bool {
	return c.Server.JWTSigningKey == devSigningKey
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil {
		return n
	}
	return def
}

func getFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(k)), 64); err == nil {
		return f
	}
	return def
}

// getDuration accepts Go durations ("750ms") or plain milliseconds.
func getDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
