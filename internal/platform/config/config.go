package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Everything comes from the
// environment so main stays lean and deployments stay twelve-factor.
type Config struct {
	Addr string

	// DatabaseURL selects the PostgreSQL store. Empty means in-memory stores,
	// which is enough for local development and unit tests.
	DatabaseURL string

	// RedisURL selects the cross-process change feed. Empty means the
	// in-process bus.
	RedisURL string

	// KafkaBrokers selects the audit event stream. Empty means the
	// channel-backed in-process publisher.
	KafkaBrokers []string
	AuditTopic   string

	JWTSigningKey string
	TokenTTL      time.Duration

	RequestTimeout time.Duration

	// ClientKeys are handed to browsers verbatim via GET /api/config.
	ClientKeys ClientKeys
}

// ClientKeys holds the third-party credentials the frontend needs to start
// voice and video sessions. The server only passes them through, it never
// calls those SDKs itself.
type ClientKeys struct {
	VapiAPIKey    string `json:"vapi_api_key"`
	ZegoAppID     string `json:"zego_app_id"`
	ZegoServerKey string `json:"zego_server_key"`
}

// FromEnv builds a Config from environment variables with local-development
// defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:           getenv("TUTORHUB_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		AuditTopic:     getenv("AUDIT_TOPIC", "tutorhub.audit"),
		JWTSigningKey:  getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:       getduration("TOKEN_TTL", 24*time.Hour),
		RequestTimeout: getduration("REQUEST_TIMEOUT", 30*time.Second),
		ClientKeys: ClientKeys{
			VapiAPIKey:    os.Getenv("VAPI_API_KEY"),
			ZegoAppID:     os.Getenv("ZEGO_APP_ID"),
			ZegoServerKey: os.Getenv("ZEGO_SERVER_KEY"),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
