package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	APIPrefix   string
	Environment string
	AppId       string
	TLSCertFile string
	TLSKeyFile  string
	BodyLimitMB int

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	SkipAuth   bool

	MongoURI string
	DBName   string

	CredentialDriver string // sqlite3 or postgres
	CredentialDSN    string

	StorageRoot string // Holds temp/ and the permanent per-user trees

	SessionStore         string // memory or redis
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	SessionTTL           time.Duration
	SessionSweepSchedule string // Empty disables the reaper

	ThumbnailWidth   int
	ThumbnailHeight  int
	ThumbnailQuality int

	EndpointCacheSize int
	EndpointCacheTTL  time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		APIPrefix:   getEnv("API_PREFIX", "/api/v1"),
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "go-cms"),
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),
		BodyLimitMB: getEnvInt("BODY_LIMIT_MB", 64),

		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		TokenTTL:   time.Duration(getEnvInt("TOKEN_TTL_HOURS", 28*24)) * time.Hour,
		BcryptCost: getEnvInt("BCRYPT_COST", 10),
		SkipAuth:   getEnv("SKIP_AUTH", "false") == "true",

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:   getEnv("DB_NAME", "go-cms"),

		CredentialDriver: getEnv("CREDENTIAL_DRIVER", "sqlite3"),
		CredentialDSN:    getEnv("CREDENTIAL_DSN", "./database/credentials.db"),

		StorageRoot: getEnv("STORAGE_ROOT", "./database/storage"),

		SessionStore:         getEnv("SESSION_STORE", "memory"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		SessionTTL:           time.Duration(getEnvInt("SESSION_TTL_MINUTES", 24*60)) * time.Minute,
		SessionSweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", ""),

		ThumbnailWidth:   getEnvInt("THUMBNAIL_WIDTH", 320),
		ThumbnailHeight:  getEnvInt("THUMBNAIL_HEIGHT", 320),
		ThumbnailQuality: getEnvInt("THUMBNAIL_QUALITY", 80),

		EndpointCacheSize: getEnvInt("ENDPOINT_CACHE_SIZE", 1024),
		EndpointCacheTTL:  time.Duration(getEnvInt("ENDPOINT_CACHE_TTL_SECONDS", 30)) * time.Second,
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}
