package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int

	// Booking concurrency
	LockTimeout time.Duration

	// Agent proposal protocol
	ProposalTTL           time.Duration
	ProposalSweepInterval time.Duration
	SoftConfirmWindow     time.Duration
	// Per-agent-type overrides of SoftConfirmWindow, e.g. "chat=2m,advisor=10m".
	SoftConfirmWindows map[string]time.Duration

	// Storefront media uploads
	MediaDir string
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	// Bcrypt cost for password hashing (default: 12)
	cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	// Advisory lock acquisition timeout. Bounded in seconds so a stuck
	// worker cannot starve the pool waiting on a contended slot.
	cfg.LockTimeout, err = getEnvAsDuration("LOCK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	// Fixed proposal lifetime, independent of trust tier.
	cfg.ProposalTTL, err = getEnvAsDuration("PROPOSAL_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.ProposalSweepInterval, err = getEnvAsDuration("PROPOSAL_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.SoftConfirmWindow, err = getEnvAsDuration("SOFT_CONFIRM_WINDOW", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.SoftConfirmWindows, err = getEnvAsDurationMap("SOFT_CONFIRM_WINDOWS", "chat=2m,advisor=10m")
	if err != nil {
		return nil, err
	}

	cfg.MediaDir = getEnv("MEDIA_DIR", "./media")

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration retrieves an environment variable as a time.Duration
// (e.g. "30m", "5s"). It returns the default value if the variable is not set.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDurationMap parses a comma-separated list of key=duration pairs,
// e.g. "chat=2m,advisor=10m".
func getEnvAsDurationMap(key, defaultValue string) (map[string]time.Duration, error) {
	valStr := getEnv(key, defaultValue)

	out := make(map[string]time.Duration)
	for _, pair := range strings.Split(valStr, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, durStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("env %s entry %q is not in name=duration form", key, pair)
		}
		dur, err := time.ParseDuration(strings.TrimSpace(durStr))
		if err != nil {
			return nil, fmt.Errorf("env %s entry %q has invalid duration: %w", key, pair, err)
		}
		out[strings.TrimSpace(name)] = dur
	}
	return out, nil
}
