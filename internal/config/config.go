package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Recurring-transaction cron endpoint. The bearer secret is checked
	// on every invocation except in development mode.
	CronSecret string

	// Receipt scanning (Gemini)
	GeminiAPIKey        string
	GeminiModelPrimary  string
	GeminiModelFallback string

	// Cache revalidation events. Leave AMQPURL empty to disable.
	AMQPURL            string
	RevalidateExchange string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get values from environment variables with defaults
	config := &Config{
		// Server
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "wealth"),
		DBPassword: getEnv("DB_PASSWORD", "wealth"),
		DBName:     getEnv("DB_NAME", "wealth"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		CronSecret: os.Getenv("CRON_SECRET"),

		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModelPrimary:  getEnv("GEMINI_MODEL_PRIMARY", "gemini-2.0-flash-lite"),
		GeminiModelFallback: getEnv("GEMINI_MODEL_FALLBACK", "gemini-2.0-flash"),

		AMQPURL:            os.Getenv("AMQP_URL"),
		RevalidateExchange: getEnv("REVALIDATE_EXCHANGE", "wealth.revalidate"),
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// IsDevelopment reports whether the app runs in local-development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
