package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	AppPort               string
	AppEnv                string
	AppURL                string
	AppCorsAllowedOrigins []string
	TrustedProxyCIDRs     []string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMigrate  bool

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTExp    int

	RealtimeDriver   string
	RealtimeChannel  string
	RealtimeDebounce time.Duration
	NatsURL          string

	ChatListPageSize        int
	ChatListRefreshInterval time.Duration
	ChatListAutoFetch       bool

	MutationRateLimit       int
	MutationRateLimitWindow time.Duration
	WSRefreshRateSeconds    int

	S3BucketPublic  string
	S3BucketPrivate string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PublicDomain  string
	AvatarURLMode   string
	AvatarURLExpiry time.Duration

	ReadStateCleanupCron string
}

func LoadAppConfig() *AppConfig {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading from system environment variables")
	}

	return &AppConfig{
		AppPort:               mustGetEnv("APP_PORT"),
		AppEnv:                mustGetEnv("APP_ENV"),
		AppURL:                getEnv("APP_URL", "http://localhost:8080"),
		AppCorsAllowedOrigins: strings.Split(getEnv("APP_CORS_ALLOWED_ORIGINS", "*"), ","),
		TrustedProxyCIDRs:     splitNonEmpty(getEnv("TRUSTED_PROXY_CIDRS", "")),

		DBHost:     mustGetEnv("DB_HOST"),
		DBPort:     mustGetEnv("DB_PORT"),
		DBUser:     mustGetEnv("DB_USER"),
		DBPassword: mustGetEnv("DB_PASSWORD"),
		DBName:     mustGetEnv("DB_NAME"),
		DBSSLMode:  mustGetEnv("DB_SSLMODE"),
		DBMigrate:  mustGetEnvAsBool("DB_MIGRATE"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret: mustGetEnv("JWT_SECRET"),
		JWTExp:    mustGetEnvAsInt("JWT_EXP"),

		RealtimeDriver:   getEnv("REALTIME_DRIVER", "redis"),
		RealtimeChannel:  getEnv("REALTIME_CHANNEL", "chat_events"),
		RealtimeDebounce: getEnvAsDuration("REALTIME_DEBOUNCE", 0),
		NatsURL:          getEnv("NATS_URL", "nats://localhost:4222"),

		ChatListPageSize:        getEnvAsInt("CHAT_LIST_PAGE_SIZE", 50),
		ChatListRefreshInterval: getEnvAsDuration("CHAT_LIST_REFRESH_INTERVAL", 0),
		ChatListAutoFetch:       getEnvAsBool("CHAT_LIST_AUTO_FETCH", true),

		MutationRateLimit:       getEnvAsInt("MUTATION_RATE_LIMIT", 60),
		MutationRateLimitWindow: getEnvAsDuration("MUTATION_RATE_LIMIT_WINDOW", time.Minute),
		WSRefreshRateSeconds:    getEnvAsInt("WS_REFRESH_RATE_SECONDS", 1),

		S3BucketPublic:  getEnv("S3_BUCKET_PUBLIC", ""),
		S3BucketPrivate: getEnv("S3_BUCKET_PRIVATE", ""),
		S3Region:        getEnv("S3_REGION", ""),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3PublicDomain:  getEnv("S3_PUBLIC_DOMAIN", ""),
		AvatarURLMode:   getEnv("AVATAR_URL_MODE", "public"),
		AvatarURLExpiry: getEnvAsDuration("AVATAR_URL_EXPIRY", time.Hour),

		ReadStateCleanupCron: getEnv("READ_STATE_CLEANUP_CRON", "0 3 * * *"),
	}
}

func (c *AppConfig) DBConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func mustGetEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		slog.Error("Environment variable is required but not set", "key", key)
		os.Exit(1)
	}
	return value
}

func mustGetEnvAsBool(key string) bool {
	valStr := mustGetEnv(key)
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		slog.Error("Environment variable must be a boolean (true/false)", "key", key, "value", valStr)
		os.Exit(1)
	}
	return val
}

func mustGetEnvAsInt(key string) int {
	valStr := mustGetEnv(key)
	val, err := strconv.Atoi(valStr)
	if err != nil {
		slog.Error("Environment variable must be an integer", "key", key, "value", valStr)
		os.Exit(1)
	}
	return val
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		slog.Warn("Environment variable must be an integer, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

func getEnvAsBool(key string, fallback bool) bool {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		slog.Warn("Environment variable must be a boolean, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

// getEnvAsDuration accepts Go duration strings ("30s", "2m") or a bare number of milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valStr, ok := os.LookupEnv(key)
	if !ok || valStr == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(valStr); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	val, err := time.ParseDuration(valStr)
	if err != nil {
		slog.Warn("Environment variable must be a duration, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

func splitNonEmpty(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
