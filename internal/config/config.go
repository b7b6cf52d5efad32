package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	StorageBucket   string
	CORSOrigins     string
	TablePrefix     string
	// Guest settings backend (empty = in-process memory)
	RedisURL string
	// Outbound webhook tuning
	WebhookTimeout time.Duration
	// Upload limits
	MaxUploadBytes    int64
	UploadConcurrency int           // 0 = one goroutine per file
	UploadTimeout     time.Duration // read deadline for upload bodies
	// Optional log file directory (empty = stdout only)
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := getEnv("SUPABASE_JWKS_URL", "")
	if jwksURL == "" && supabaseURL != "" {
		jwksURL = supabaseURL + "/auth/v1/.well-known/jwks.json"
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       env,
		SupabaseURL:       supabaseURL,
		SupabaseKey:       getEnv("SUPABASE_KEY", ""),
		SupabaseDBURL:     getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL:   jwksURL,
		StorageBucket:     getEnv("STORAGE_BUCKET", DefaultStorageBucket),
		CORSOrigins:       getEnv("CORS_ORIGINS", "http://localhost:5173"),
		TablePrefix:       tablePrefix,
		RedisURL:          getEnv("REDIS_URL", ""),
		WebhookTimeout:    getEnvDuration("WEBHOOK_TIMEOUT", DefaultWebhookTimeout),
		MaxUploadBytes:    getEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		UploadConcurrency: int(getEnvInt64("UPLOAD_CONCURRENCY", 0)),
		UploadTimeout:     getEnvDuration("UPLOAD_TIMEOUT", DefaultUploadTimeout),
		LogDir:            getEnv("LOG_DIR", ""),
		LogMaxFiles:       int(getEnvInt64("LOG_MAX_FILES", 10)),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix, ok := os.LookupEnv("TABLE_PREFIX"); ok {
		return prefix
	}

	switch env {
	case "prod":
		return ""
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
