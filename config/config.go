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
	AppEnv string
	Port   string

	DBDriver   string // postgres, mysql, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBDSN      string // overrides the composed DSN when set

	JWTKey    string
	SaltRound int

	OTPTTL     time.Duration
	SessionTTL time.Duration

	CookieSecure bool
	CookieDomain string

	EmailProvider   string // sendgrid, http, console
	SendGridAPIKey  string
	EmailSender     string
	EmailSenderName string
	EmailRelayURL   string
	EmailRelayToken string

	CacheDriver   string // memory, redis
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	CorsOrigins   string
	PurgeSchedule string
	AuthRateLimit int // auth requests per minute per client IP, 0 disables
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	d := Default()
	AppConfig = &Config{
		AppEnv: getEnv("APP_ENV", d.AppEnv),
		Port:   getEnv("PORT", d.Port),

		DBDriver:   getEnv("DB_DRIVER", d.DBDriver),
		DBHost:     getEnv("DB_HOST", d.DBHost),
		DBPort:     getEnv("DB_PORT", d.DBPort),
		DBUser:     getEnv("DB_USER", d.DBUser),
		DBPassword: getEnv("DB_PASSWORD", d.DBPassword),
		DBName:     getEnv("DB_NAME", d.DBName),
		DBDSN:      getEnv("DB_DSN", ""),

		JWTKey:    getEnv("JWT_SECRET_KEY", d.JWTKey),
		SaltRound: getEnvInt("SALT_ROUND", d.SaltRound),

		OTPTTL:     getEnvDuration("OTP_TTL", d.OTPTTL),
		SessionTTL: getEnvDuration("SESSION_TTL", d.SessionTTL),

		CookieSecure: getEnvBool("COOKIE_SECURE", d.CookieSecure),
		CookieDomain: getEnv("COOKIE_DOMAIN", ""),

		EmailProvider:   getEnv("EMAIL_PROVIDER", d.EmailProvider),
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		EmailSender:     getEnv("EMAIL_SENDER", d.EmailSender),
		EmailSenderName: getEnv("EMAIL_SENDER_NAME", d.EmailSenderName),
		EmailRelayURL:   getEnv("EMAIL_RELAY_URL", ""),
		EmailRelayToken: getEnv("EMAIL_RELAY_TOKEN", ""),

		CacheDriver:   getEnv("CACHE_DRIVER", d.CacheDriver),
		RedisAddr:     getEnv("REDIS_ADDR", d.RedisAddr),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      getEnvDuration("CACHE_TTL", d.CacheTTL),

		CorsOrigins:   getEnv("CORS_ORIGINS", d.CorsOrigins),
		PurgeSchedule: getEnv("PURGE_SCHEDULE", d.PurgeSchedule),
		AuthRateLimit: getEnvInt("AUTH_RATE_LIMIT", d.AuthRateLimit),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == d.JWTKey {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.IsProduction() && !AppConfig.CookieSecure {
		log.Println("Warning: COOKIE_SECURE is off in production.")
	}
}

// Default returns the configuration used when nothing is set in the environment.
func Default() *Config {
	return &Config{
		AppEnv: "development",
		Port:   "3000",

		DBDriver: "postgres",
		DBHost:   "localhost",
		DBPort:   "5432",
		DBUser:   "postgres",
		DBName:   "coursedelivery",

		JWTKey:    "defaultSecret",
		SaltRound: 10,

		OTPTTL:     10 * time.Minute,
		SessionTTL: 30 * 24 * time.Hour,

		EmailProvider:   "console",
		EmailSender:     "no-reply@coursedelivery.local",
		EmailSenderName: "Course Delivery",

		CacheDriver: "memory",
		RedisAddr:   "localhost:6379",
		CacheTTL:    60 * time.Second,

		CorsOrigins:   "*",
		PurgeSchedule: "@hourly",
		AuthRateLimit: 10,
	}
}

// IsProduction reports whether the app runs with production behaviour.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.AppEnv) {
	case "prod", "production":
		return true
	}
	return false
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return b
}

// getEnvDuration accepts Go duration strings ("10m", "720h").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to duration: %v", key, err)
		return defaultValue
	}
	return d
}
