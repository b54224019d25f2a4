// ============================================================================
// backend/internal/shared/config.go
// Configuration management and environment variable helpers
// ============================================================================

package shared

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ============================================================================
// Configuration Structs
// ============================================================================

// Config holds the full server configuration.
type Config struct {
	ServiceName string
	HTTPPort    string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error

	MongoDB  MongoConfig
	Security SecurityConfig
	CORS     CORSConfig
	Grading  GradingConfig

	// DataDir is where the JSON fallback store keeps its snapshot files.
	DataDir string
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	JWTSecret          string
	JWTExpirationHours int
	BCryptCost         int // 10-12 recommended
}

// CORSConfig holds CORS-related configuration for the React frontend.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds
}

// GradingConfig holds institutional grading policy knobs.
type GradingConfig struct {
	PassingThreshold float64
}

// ============================================================================
// Configuration Loading
// ============================================================================

// LoadEnv loads environment variables from a .env file. Missing files are not
// fatal; the process environment is used as-is.
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("Warning: %s file not found, using system environment variables", envFile)
		return err
	}

	log.Printf("Successfully loaded environment from %s", envFile)
	return nil
}

// LoadConfig loads the server configuration from the environment.
func LoadConfig(serviceName string) (*Config, error) {
	config := &Config{
		ServiceName: serviceName,
		HTTPPort:    GetEnv("HTTP_PORT", "8080"),
		Environment: GetEnv("ENVIRONMENT", "development"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		DataDir:     GetEnv("DATA_DIR", "data"),
	}

	mongoURI := GetEnv("MONGO_URI", "")
	if mongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable is required")
	}

	config.MongoDB = MongoConfig{
		URI:            mongoURI,
		Database:       GetEnv("MONGO_DB_NAME", "AcadPulse"),
		ConnectTimeout: GetDurationEnv("MONGO_CONNECT_TIMEOUT", 20*time.Second),
		MaxPoolSize:    uint64(GetIntEnv("MONGO_MAX_POOL_SIZE", 50)),
		MinPoolSize:    uint64(GetIntEnv("MONGO_MIN_POOL_SIZE", 10)),
		MaxIdleTime:    GetDurationEnv("MONGO_MAX_IDLE_TIME", 30*time.Second),
	}

	config.Security = SecurityConfig{
		JWTSecret:          GetEnv("JWT_SECRET", ""),
		JWTExpirationHours: GetIntEnv("JWT_EXPIRATION_HOURS", 24),
		BCryptCost:         GetIntEnv("BCRYPT_COST", 10),
	}
	if config.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   GetStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		AllowedMethods:   GetStringSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
		AllowedHeaders:   GetStringSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
		AllowCredentials: GetBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           GetIntEnv("CORS_MAX_AGE", 300),
	}
	// The localhost origins above are dev defaults; production must name its
	// frontend explicitly.
	if config.IsProduction() && os.Getenv("CORS_ALLOWED_ORIGINS") == "" {
		return nil, fmt.Errorf("CORS_ALLOWED_ORIGINS must be set in production")
	}

	config.Grading = GradingConfig{
		PassingThreshold: GetFloatEnv("GRADE_PASSING_THRESHOLD", 35),
	}

	return config, nil
}

// ============================================================================
// Environment Variable Helpers
// ============================================================================

// GetEnv retrieves an environment variable or returns a default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv retrieves an integer environment variable or returns a default value.
func GetIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// GetFloatEnv retrieves a float environment variable or returns a default value.
func GetFloatEnv(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s: %s, using default: %v", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// GetBoolEnv retrieves a boolean environment variable or returns a default value.
func GetBoolEnv(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s: %s, using default: %t", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// GetDurationEnv retrieves a duration environment variable or returns a default
// value. Supports formats like "30s", "5m", "1h".
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s: %s, using default: %v", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// GetStringSliceEnv retrieves a comma-separated string list or returns a default value.
func GetStringSliceEnv(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// ============================================================================
// Environment Checks
// ============================================================================

// IsDevelopment checks if running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PrintConfig prints configuration (sanitized) for debugging.
func PrintConfig(config *Config) {
	log.Println("=== Service Configuration ===")
	log.Printf("Service Name: %s", config.ServiceName)
	log.Printf("HTTP Port: %s", config.HTTPPort)
	log.Printf("Environment: %s", config.Environment)
	log.Printf("Data Dir: %s", config.DataDir)
	log.Println("=== MongoDB Configuration ===")
	log.Printf("Database: %s", config.MongoDB.Database)
	log.Printf("Max Pool Size: %d", config.MongoDB.MaxPoolSize)
	log.Printf("Min Pool Size: %d", config.MongoDB.MinPoolSize)
	log.Println("=== Security Configuration ===")
	log.Printf("JWT Expiration: %d hours", config.Security.JWTExpirationHours)
	log.Printf("BCrypt Cost: %d", config.Security.BCryptCost)
	log.Println("=== Grading Configuration ===")
	log.Printf("Passing Threshold: %.0f", config.Grading.PassingThreshold)
	log.Println("=============================")
}
