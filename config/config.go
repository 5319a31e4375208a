package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Everything comes from the environment (optionally a .env file) with defaults
// that work for a local checkout of the portfolio site.
type Config struct {
	ListenAddr      string
	StaticDir       string // Root of the portfolio site served as-is
	CatalogSource   string // File path, http(s):// URL or minio://bucket/key
	FallbackJSPath  string // JS file embedding a fallback copy of the catalog
	DefaultLanguage string // Description language used by the playlist view

	FFmpegPath string
	FFplayPath string

	LogLevel string
	LogFile  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	AdminPasswordHash string // bcrypt hash; empty disables auth on the control API
	JWTSecret         string
	JWTTTL            time.Duration
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration parses values like "12h" or "90m".
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables and defaults.")
	}
	return fromEnv()
}

func fromEnv() *Config {
	return &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		StaticDir:       getEnv("STATIC_DIR", "."),
		CatalogSource:   getEnv("CATALOG_SOURCE", "assets/js/tracks.json"),
		FallbackJSPath:  getEnv("FALLBACK_JS", "assets/js/music.js"),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),

		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),
		FFplayPath: getEnv("FFPLAY_PATH", "ffplay"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		RedisHost:     getEnv("REDIS_HOST", ""), // Redis is disabled when empty
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "soundfolio"),
		MinioRegion:    getEnv("MINIO_REGION", ""),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", true),

		DBHost:     getEnv("DB_HOST", ""), // play history is disabled without a DB host
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "soundfolio"),

		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTTTL:            getEnvDuration("JWT_TTL", 12*time.Hour),
	}
}

// RedisEnabled reports whether a Redis host was configured.
func (c *Config) RedisEnabled() bool { return c.RedisHost != "" }

// MinioEnabled reports whether a MinIO endpoint was configured.
func (c *Config) MinioEnabled() bool { return c.MinioEndpoint != "" }

// DBEnabled reports whether play history should be recorded.
func (c *Config) DBEnabled() bool { return c.DBHost != "" }

// AuthEnabled reports whether the player control API requires a token.
func (c *Config) AuthEnabled() bool { return c.AdminPasswordHash != "" }
