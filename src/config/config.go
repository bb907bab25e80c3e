package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Pipeline settings
	RulesPath            string
	NoisePatterns        []string
	CreditAccountPattern string
	MaxUploadSizeBytes   int64
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// Descriptions matching these default patterns are excluded from daily
// balance reconstruction: internal sweeps, security postings and
// inter-account transfers move money without changing net worth.
const defaultNoisePatterns = `(?i)online transfer (to|from);(?i)sweep (in|out);(?i)(bought|sold) [0-9.]+ shares;(?i)transfer (to|from) (savings|checking)`

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}
	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./banktransactionvis.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		RulesPath:            getEnv("RULES_PATH", "rules.yaml"),
		NoisePatterns:        getEnvAsList("NOISE_PATTERNS", defaultNoisePatterns),
		CreditAccountPattern: getEnv("CREDIT_ACCOUNT_PATTERN", `(?i)credit`),
		MaxUploadSizeBytes:   getEnvAsInt64("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, RulesPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.RulesPath)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvAsInt64 retrieves an environment variable as an int64 or returns a fallback.
func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsList splits a semicolon-separated environment variable. Regex
// patterns may contain commas, so ';' is the separator.
func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
