package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageDriverS3   = "s3"
	StorageDriverGCS  = "gcs"
	StorageDriverFile = "file"
)

// Auth modes accepted by AUTH_MODE.
const (
	AuthModeRemote = "remote"
	AuthModeHS256  = "hs256"
	AuthModeJWKS   = "jwks"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	GeminiAPIKey  string
	GeminiBaseURL string

	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseJWTSecret      string
	AuthMode               string
	JWKSURL                string

	StorageDriver  string
	StoragePath    string
	S3Endpoint     string
	S3Region       string
	S3AccessKeyID  string
	S3SecretKey    string
	GCSCredentials string
	WardrobeBucket string
	ProductBucket  string
	AvatarBucket   string

	GeoIPDBPath      string
	CORSOrigins      []string
	OTLPEndpoint     string
	TraceSampleRatio float64

	GenerationAttemptTimeout time.Duration
	HTTPReadTimeout          time.Duration
	HTTPWriteTimeout         time.Duration
	HTTPIdleTimeout          time.Duration
	RateLimitPerMin          int
	TrustedProxyHops         int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),
		Port:                   getEnv("PORT", "8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		GeminiAPIKey:           firstEnv("GEMINI_API_KEY", "API_KEY"),
		GeminiBaseURL:          os.Getenv("GEMINI_BASE_URL"),
		SupabaseURL:            strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseJWTSecret:      os.Getenv("SUPABASE_JWT_SECRET"),
		AuthMode:               strings.ToLower(getEnv("AUTH_MODE", AuthModeRemote)),
		JWKSURL:                os.Getenv("SUPABASE_JWKS_URL"),
		StorageDriver:          strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverS3)),
		StoragePath:            getEnv("STORAGE_PATH", "./storage"),
		S3Endpoint:             os.Getenv("S3_ENDPOINT"),
		S3Region:               getEnv("S3_REGION", "us-east-1"),
		S3AccessKeyID:          os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:            os.Getenv("S3_SECRET_ACCESS_KEY"),
		GCSCredentials:         os.Getenv("GCS_CREDENTIALS_FILE"),
		WardrobeBucket:         getEnv("WARDROBE_BUCKET", "wardrobe"),
		ProductBucket:          getEnv("PRODUCT_BUCKET", "products"),
		AvatarBucket:           getEnv("AVATAR_BUCKET", "avatars"),
		GeoIPDBPath:            os.Getenv("GEOIP_DB_PATH"),
		CORSOrigins:            splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		OTLPEndpoint:           os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceSampleRatio:       getEnvFloat("OTEL_TRACE_SAMPLE_RATIO", 0.1),

		GenerationAttemptTimeout: time.Second * time.Duration(getEnvInt("GENERATION_ATTEMPT_TIMEOUT_SECONDS", 60)),
		HTTPReadTimeout:          time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:         time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 240)),
		HTTPIdleTimeout:          time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:          getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		TrustedProxyHops:         getEnvInt("TRUSTED_PROXY_HOPS", 0),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}

	switch cfg.AuthMode {
	case AuthModeRemote:
	case AuthModeHS256:
		if cfg.SupabaseJWTSecret == "" {
			return nil, fmt.Errorf("SUPABASE_JWT_SECRET is required when AUTH_MODE=hs256")
		}
	case AuthModeJWKS:
		if cfg.JWKSURL == "" {
			cfg.JWKSURL = cfg.SupabaseURL + "/auth/v1/.well-known/jwks.json"
		}
	default:
		return nil, fmt.Errorf("unsupported AUTH_MODE %q", cfg.AuthMode)
	}

	switch cfg.StorageDriver {
	case StorageDriverS3:
		if cfg.S3Endpoint == "" {
			cfg.S3Endpoint = cfg.SupabaseURL + "/storage/v1/s3"
		}
		if _, err := url.Parse(cfg.S3Endpoint); err != nil {
			return nil, fmt.Errorf("invalid S3_ENDPOINT: %w", err)
		}
	case StorageDriverGCS, StorageDriverFile:
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
