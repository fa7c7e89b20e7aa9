package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/pizzeria-app/utils"
)

// Config holds all configuration for the API server. Values come from the
// environment, optionally seeded from a .env file.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Orders   OrderConfig
	Uploads  UploadConfig
	Admin    AdminConfig
	LogLevel string
	LogJSON  bool
}

type ServerConfig struct {
	Port            string
	GinMode         string
	AllowedOrigin   string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	RateLimit       int
	RateInterval    int
	AuthRateLimit   int
	TrustedProxies  []string
}

type DatabaseConfig struct {
	// Driver is one of sqlite, mysql, postgres or mongodb.
	Driver        string
	URL           string
	MongoDatabase string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

type OrderConfig struct {
	DeliveryFee decimal.Decimal
	// MonitorInterval is how often order metrics are recomputed.
	MonitorInterval   time.Duration
	PendingAlertAfter time.Duration
}

type UploadConfig struct {
	Dir     string
	MaxSize int64
}

// AdminConfig seeds the first administrator when both fields are set.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

// Load reads .env if present and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	deliveryFee, err := decimal.NewFromString(getEnv("DELIVERY_FEE", "5.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid DELIVERY_FEE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "3000"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			AllowedOrigin:   getEnv("CORS_ORIGIN", "*"),
			RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			RateLimit:       getEnvAsInt("RATE_LIMIT", 50),
			RateInterval:    getEnvAsInt("RATE_INTERVAL", 1),
			AuthRateLimit:   getEnvAsInt("AUTH_RATE_LIMIT", 5),
			TrustedProxies:  getEnvAsSlice("TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			URL:           getEnv("DATABASE_URL", "pizzeria.db"),
			MongoDatabase: getEnv("MONGO_DATABASE", "pizzeria"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			Issuer:    getEnv("JWT_ISSUER", "pizzeria-app"),
			TokenTTL:  getEnvAsDuration("TOKEN_TTL", utils.DefaultTokenTTL),
		},
		Orders: OrderConfig{
			DeliveryFee:       deliveryFee,
			MonitorInterval:   getEnvAsDuration("ORDER_MONITOR_INTERVAL", time.Minute),
			PendingAlertAfter: getEnvAsDuration("PENDING_ALERT_AFTER", 15*time.Minute),
		},
		Uploads: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "public/uploads"),
			MaxSize: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 5<<20)),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "Administrator"),
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvAsBool("LOG_JSON", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres", "mongodb":
	default:
		return fmt.Errorf("invalid DB_DRIVER: %s (must be sqlite, mysql, postgres, or mongodb)", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Orders.DeliveryFee.IsNegative() {
		return fmt.Errorf("DELIVERY_FEE cannot be negative")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		utils.ErrorLogger.Printf("Invalid %s=%q, using %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("10s") or a plain number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	utils.ErrorLogger.Printf("Invalid %s=%q, using %s", key, valueStr, defaultValue)
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
