package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"heather-backend/internal/domain"
	"heather-backend/pkg/security"

	"github.com/joho/godotenv"
)

const (
	minProfileFetchTimeout = 8 * time.Second
	maxProfileFetchTimeout = 10 * time.Second
)

type Config struct {
	AppEnv   string
	LogLevel string
	Port     string
	DBUrl    string

	SupabaseURL       string
	SupabaseKey       string
	SupabaseJWTSecret string
	// FrontendURL is the email-confirmation redirect target for sign-ups.
	FrontendURL string

	ProfileFetchTimeout time.Duration

	// Gemini
	GeminiAPIKey          string
	GeminiModel           string
	GeminiBaseURL         string
	GeminiMaxRetryElapsed time.Duration
	AnalysisDailyLimit    int

	// Document archive (S3 or Wasabi)
	S3Provider        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	DocumentBucket    string
	WasabiEndpoint    string

	// clamd address; empty disables malware scanning
	ClamAVAddress string

	// SMTP (Brevo)
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromEmail string

	// Redis/Upstash
	UpstashRedisURL      string
	UpstashRedisPassword string

	RateLimitWindowSeconds   int
	RateLimitGlobalThreshold int

	AuditLogToDB bool
}

func LoadConfig() (*Config, error) {
	// .env is only present locally.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),
		DBUrl:    getEnv("DATABASE_URL", ""),
		// Trailing slashes would produce ".co//auth".
		SupabaseURL:       strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey:       getEnv("SUPABASE_KEY", getEnv("SUPABASE_ANON_KEY", "")),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		FrontendURL:       strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),

		ProfileFetchTimeout: clampDuration(
			getEnvDuration("PROFILE_FETCH_TIMEOUT", minProfileFetchTimeout),
			minProfileFetchTimeout, maxProfileFetchTimeout),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:         strings.TrimRight(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"), "/"),
		GeminiMaxRetryElapsed: getEnvDuration("GEMINI_MAX_RETRY_ELAPSED", 45*time.Second),
		AnalysisDailyLimit:    getEnvInt("ANALYSIS_DAILY_LIMIT", 20),

		S3Provider:        getEnv("S3_PROVIDER", "aws"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		DocumentBucket:    getEnv("DOCUMENT_BUCKET", ""),
		WasabiEndpoint:    getEnv("WASABI_ENDPOINT", ""),

		ClamAVAddress: getEnv("CLAMAV_ADDRESS", ""),

		SMTPHost:      getEnv("SMTP_HOST", "smtp-relay.brevo.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail: getEnv("SMTP_FROM_EMAIL", "noreply@heather.health"),

		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),

		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitGlobalThreshold: getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 100),

		AuditLogToDB: getEnvBool("AUDIT_LOG_TO_DB", false),
	}

	if cfg.UpstashRedisURL == "" {
		slog.Warn("UPSTASH_REDIS_URL not configured; rate limits, quotas and session storage run in memory")
	}

	return cfg, nil
}

// Validate checks the settings every auth operation depends on.
func (c *Config) Validate() error {
	var missing []string
	if c.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.SupabaseKey == "" {
		missing = append(missing, "SUPABASE_KEY")
	}
	if len(missing) > 0 {
		return &domain.ConfigurationError{Missing: missing}
	}
	return nil
}

// ValidateServer additionally requires the database used by the API.
func (c *Config) ValidateServer() error {
	var missing []string
	if err := c.Validate(); err != nil {
		missing = append(missing, err.(*domain.ConfigurationError).Missing...)
	}
	if c.DBUrl == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return &domain.ConfigurationError{Missing: missing}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// JWKSURL is the Supabase endpoint serving asymmetric signing keys.
func (c *Config) JWKSURL() string {
	return c.SupabaseURL + "/auth/v1/.well-known/jwks.json"
}

// SignupRedirectURL is where confirmation emails send the user.
func (c *Config) SignupRedirectURL() string {
	return c.FrontendURL + domain.PathSignIn
}

func (c *Config) S3() security.S3ClientConfig {
	provider := security.S3ProviderAWS
	if c.S3Provider == string(security.S3ProviderWasabi) {
		provider = security.S3ProviderWasabi
	}
	return security.S3ClientConfig{
		Provider:        provider,
		AccessKeyID:     c.S3AccessKeyID,
		SecretAccessKey: c.S3SecretAccessKey,
		Region:          c.S3Region,
		Bucket:          c.DocumentBucket,
		WasabiEndpoint:  c.WasabiEndpoint,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("8s") or plain seconds ("8").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
