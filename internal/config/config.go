package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort         string
	DatabaseType       string
	DatabasePath       string
	DatabaseURL        string
	MigrationsPath     string
	JWTSecret          string
	TokenDuration      time.Duration
	SessionIdleTimeout time.Duration
	Timezone           *time.Location
	RedisAddr          string
	CORSAllowedOrigins []string
	LoginRateLimit     int

	// First staff account, created only when no account exists
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	return &Config{
		ServerPort:         getEnv("PORT", "8080"),
		DatabaseType:       getEnv("DB_TYPE", "sqlite"),
		DatabasePath:       getEnv("DB_PATH", "./wordtest.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MigrationsPath:     getEnv("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		TokenDuration:      getDuration("TOKEN_DURATION", 12*time.Hour),
		SessionIdleTimeout: getDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		Timezone:           getLocation("ACADEMY_TIMEZONE", "Asia/Seoul"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		LoginRateLimit:     getInt("LOGIN_RATE_LIMIT", 10),
		AdminEmail:         getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		AdminPassword:      getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		AdminName:          getEnv("BOOTSTRAP_ADMIN_NAME", "Administrator"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getLocation resolves the academy timezone used for "today" and local midnight
func getLocation(key, defaultValue string) *time.Location {
	name := getEnv(key, defaultValue)
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Warning: unknown timezone %q, using local time: %v", name, err)
		return time.Local
	}
	return loc
}
