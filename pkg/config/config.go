package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// DefaultVerifyToken is used when WEBHOOK_VERIFY_TOKEN is unset. It is only
// honored outside production; see Validate.
const DefaultVerifyToken = "dev-verify-token"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	// Messenger platform configuration
	Messenger struct {
		// AccessToken authorizes Send API and profile lookups
		AccessToken string
		// AppSecret keys the X-Hub-Signature HMAC check
		AppSecret string
		// VerifyToken is echoed back during webhook subscription
		VerifyToken string
		// GraphBaseURL points at the platform Graph API
		GraphBaseURL string
		// HTTPTimeout bounds one Send API or profile call
		HTTPTimeout time.Duration
	}

	// Cache settings for profile lookups
	Cache struct {
		Enabled    bool
		RedisURL   string
		ProfileTTL time.Duration
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Security configuration for the inbound webhook surface
	Security struct {
		RateLimit      float64
		RateLimitBurst int
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8081")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "messenger-bot")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
		instance.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

		// Messenger config
		instance.Messenger.AccessToken = getEnvString("PAGE_ACCESS_TOKEN", "")
		instance.Messenger.AppSecret = getEnvString("APP_SECRET", "")
		instance.Messenger.VerifyToken = getEnvString("WEBHOOK_VERIFY_TOKEN", DefaultVerifyToken)
		instance.Messenger.GraphBaseURL = getEnvString("GRAPH_BASE_URL", "https://graph.facebook.com/v2.6")
		instance.Messenger.HTTPTimeout = getEnvDuration("MESSENGER_HTTP_TIMEOUT", 15*time.Second)

		// Cache config
		instance.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
		instance.Cache.RedisURL = getEnvString("REDIS_URL", "localhost:6379")
		instance.Cache.ProfileTTL = getEnvDuration("PROFILE_CACHE_TTL", 10*time.Minute)

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// IsProduction reports whether the server runs in the production environment
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

// Validate checks that required platform credentials are present. The default
// verify token is rejected in production.
func (c *Config) Validate() []string {
	var missing []string
	if c.Messenger.AccessToken == "" {
		missing = append(missing, "PAGE_ACCESS_TOKEN")
	}
	if c.Messenger.AppSecret == "" {
		missing = append(missing, "APP_SECRET")
	}
	if c.IsProduction() && c.Messenger.VerifyToken == DefaultVerifyToken {
		missing = append(missing, "WEBHOOK_VERIFY_TOKEN")
	}
	return missing
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
