package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Persistence backends understood by PERSISTENCE_BACKEND
const (
	BackendFile     = "file"
	BackendDatabase = "database"
	BackendR2       = "r2"
)

type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string
	LogFormat   string
	StaticDir   string
	AppURL      string
	// Persistence
	PersistenceBackend string
	DataFile           string
	DBPath             string
	SnapshotHistory    int
	TursoDatabaseURL   string
	TursoAuthToken     string
	// Cloudflare R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2SnapshotKey     string
	// Email (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged instead of sent
	// Sessions and jobs
	SessionTTL     time.Duration
	DigestEnabled  bool
	DigestSchedule string // cron expression
	DigestTimezone string
	// Other
	AllowedOrigins []string
	ChromePath     string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "3001"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		StaticDir:          getEnv("STATIC_DIR", "dist"),
		AppURL:             getEnv("APP_URL", "http://localhost:3001"),
		PersistenceBackend: strings.ToLower(getEnv("PERSISTENCE_BACKEND", BackendFile)),
		DataFile:           getEnv("DATA_FILE", "data/db.json"),
		DBPath:             getEnv("DB_PATH", "data/app.db"),
		SnapshotHistory:    getEnvInt("SNAPSHOT_HISTORY", 20),
		TursoDatabaseURL:   getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:     getEnv("TURSO_AUTH_TOKEN", ""),
		R2AccountID:        getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:      getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey:  getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:       getEnv("R2_BUCKET_NAME", ""),
		R2SnapshotKey:      getEnv("R2_SNAPSHOT_KEY", "snapshots/db.json"),
		ResendAPIKey:       getEnv("RESEND_API_KEY", ""),
		EmailFrom:          getEnv("EMAIL_FROM", "noreply@casedesk.local"),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Case Desk"),
		EmailTestMode:      getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		SessionTTL:         time.Duration(getEnvMinInt("SESSION_TTL_HOURS", 12, 1)) * time.Hour,
		DigestEnabled:      getEnvBool("DIGEST_ENABLED", false),
		DigestSchedule:     getEnv("DIGEST_SCHEDULE", "0 7 * * 1-5"),
		DigestTimezone:     getEnv("DIGEST_TIMEZONE", "UTC"),
		AllowedOrigins:     strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		ChromePath:         getEnv("CHROME_PATH", ""),
	}
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	return getEnvMinInt(key, defaultValue, 0)
}

// getEnvMinInt reads an integer that must be at least minValue
func getEnvMinInt(key string, defaultValue, minValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < minValue {
		log.Printf("[WARNING] Invalid value for %s: %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
