package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string
	DBDSN        string

	// Identity provider (Keycloak-compatible) settings.
	IDPBaseURL       string
	IDPRealm         string
	IDPClientID      string
	IDPClientSecret  string
	IDPAdminUsername string
	IDPAdminPassword string
	IDPJWTSecret     string

	// Where to send the browser after the provider-side logout completes.
	LogoutRedirectURL string
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

	// Identity provider settings. The base URL and realm are required; the
	// service cannot authenticate anyone without them.
	cfg.IDPBaseURL = os.Getenv("IDP_BASE_URL")
	if cfg.IDPBaseURL == "" {
		return nil, fmt.Errorf("IDP_BASE_URL is required")
	}
	cfg.IDPRealm = os.Getenv("IDP_REALM")
	if cfg.IDPRealm == "" {
		return nil, fmt.Errorf("IDP_REALM is required")
	}
	cfg.IDPClientID = getEnv("IDP_CLIENT_ID", "reservation-backend")
	cfg.IDPClientSecret = getEnv("IDP_CLIENT_SECRET", "")

	// Admin credentials back the provisioning API (register, role changes,
	// account deletion).
	cfg.IDPAdminUsername = os.Getenv("IDP_ADMIN_USERNAME")
	cfg.IDPAdminPassword = os.Getenv("IDP_ADMIN_PASSWORD")
	if cfg.IDPAdminUsername == "" || cfg.IDPAdminPassword == "" {
		return nil, fmt.Errorf("IDP_ADMIN_USERNAME and IDP_ADMIN_PASSWORD are required")
	}

	// Shared secret used to verify access tokens issued by the provider.
	cfg.IDPJWTSecret = os.Getenv("IDP_JWT_SECRET")
	if cfg.IDPJWTSecret == "" {
		return nil, fmt.Errorf("IDP_JWT_SECRET is required")
	}

	cfg.LogoutRedirectURL = getEnv("LOGOUT_REDIRECT_URL", "/")

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
