// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the gateway
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Commerce CommerceConfig
	Shipping ShippingConfig
	Session  SessionConfig
	JWT      JWTConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// StorageConfig contains durable state-store configuration.
// Driver "sqlite" keeps persisted state slices in a local file,
// "postgres" points at a shared database for multi-instance deployments.
type StorageConfig struct {
	Driver       string
	SQLitePath   string
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// CommerceConfig contains remote commerce backend configuration
type CommerceConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RefreshPath    string
	CoalesceWindow time.Duration
}

// ShippingConfig contains the tiered shipping fee schedule.
// Amounts are in paise.
type ShippingConfig struct {
	BaseCharge       int64
	ChargePerExtraKg int64
	ThresholdGrams   float64
}

// SessionConfig contains browser-session cart configuration
type SessionConfig struct {
	CartTTL   time.Duration
	CouponTTL time.Duration
}

// JWTConfig contains JWT token validation configuration
type JWTConfig struct {
	Secret string
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Storefront Gateway"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:         getEnv("APP_PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		Storage: StorageConfig{
			Driver:       getEnv("STORAGE_DRIVER", "sqlite"),
			SQLitePath:   getEnv("STORAGE_SQLITE_PATH", "data/gateway.db"),
			Host:         getEnv("STORAGE_DB_HOST", "localhost"),
			Port:         getEnv("STORAGE_DB_PORT", "5432"),
			Name:         getEnv("STORAGE_DB_NAME", "storefront_gateway"),
			User:         getEnv("STORAGE_DB_USER", "gateway_user"),
			Password:     getEnv("STORAGE_DB_PASSWORD", "gateway_password"),
			SSLMode:      getEnv("STORAGE_DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("STORAGE_DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("STORAGE_DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("STORAGE_DB_MAX_LIFETIME", 300*time.Second),
		},
		Commerce: CommerceConfig{
			BaseURL:        getEnv("COMMERCE_BASE_URL", "http://localhost:9000/api/v1"),
			Timeout:        getEnvAsDuration("COMMERCE_TIMEOUT", 10*time.Second),
			RefreshPath:    getEnv("COMMERCE_REFRESH_PATH", "/auth/refresh"),
			CoalesceWindow: getEnvAsDuration("COMMERCE_COALESCE_WINDOW", 500*time.Millisecond),
		},
		Shipping: ShippingConfig{
			BaseCharge:       getEnvAsInt64("SHIPPING_BASE_CHARGE", 8000),          // ₹80
			ChargePerExtraKg: getEnvAsInt64("SHIPPING_CHARGE_PER_EXTRA_KG", 8000), // ₹80
			ThresholdGrams:   getEnvAsFloat("SHIPPING_THRESHOLD_GRAMS", 1000),
		},
		Session: SessionConfig{
			CartTTL:   getEnvAsDuration("SESSION_CART_TTL", 24*time.Hour),
			CouponTTL: getEnvAsDuration("SESSION_COUPON_TTL", 24*time.Hour),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-in-production"),
		},
		Security: SecurityConfig{
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Session-ID"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate JWT secret
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	// Validate Redis configuration
	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}

	// Validate commerce backend configuration
	if c.Commerce.BaseURL == "" {
		return fmt.Errorf("COMMERCE_BASE_URL is required")
	}

	// Validate storage configuration
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("STORAGE_SQLITE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Storage.Host == "" {
			return fmt.Errorf("STORAGE_DB_HOST is required for the postgres driver")
		}
		if c.Storage.Name == "" {
			return fmt.Errorf("STORAGE_DB_NAME is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}

	// Validate shipping schedule
	if c.Shipping.BaseCharge < 0 || c.Shipping.ChargePerExtraKg < 0 {
		return fmt.Errorf("shipping charges cannot be negative")
	}
	if c.Shipping.ThresholdGrams <= 0 {
		return fmt.Errorf("SHIPPING_THRESHOLD_GRAMS must be positive")
	}

	// Validate server port
	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetStorageDSN returns the postgres connection string for the state store
func (c *Config) GetStorageDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Storage.Host,
		c.Storage.Port,
		c.Storage.User,
		c.Storage.Password,
		c.Storage.Name,
		c.Storage.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
