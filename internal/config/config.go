package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP             HTTPConfig
	DatabaseURL      string
	Auth             AuthConfig
	ProjectStateFile string
	ContactStateFile string
	AuditLogFile     string
	AllowedOrigins   []string
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	BootstrapUsername string
	BootstrapPassword string
	PasswordPepper    string
	JWTSecret         string
	SessionTTL        time.Duration
	SessionStateFile  string
	UserStateFile     string
}

// ClientConfig configures the admin console's API client. The base
// endpoint is fixed per deployment environment, not chosen at runtime.
type ClientConfig struct {
	BaseURL  string
	Timeout  time.Duration
	StateDir string
}

const (
	productionAPIURL = "https://portfolio-api.onrender.com/api"
	localAPIURL      = "http://localhost:8080/api"
)

func Load() (Config, error) {
	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 15)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 20)) * time.Second,
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Auth: AuthConfig{
			BootstrapUsername: getEnv("AUTH_BOOTSTRAP_USERNAME", "admin"),
			BootstrapPassword: getEnv("AUTH_BOOTSTRAP_PASSWORD", "ChangeMe-Admin1!"),
			PasswordPepper:    getEnv("AUTH_PASSWORD_PEPPER", "change-me-in-production"),
			JWTSecret:         getEnv("AUTH_JWT_SECRET", "change-me-in-production"),
			SessionTTL:        time.Duration(getEnvInt("AUTH_SESSION_TTL_SEC", 86400)) * time.Second,
			SessionStateFile:  getEnv("AUTH_SESSION_STATE_FILE", "./data/admin_sessions.json"),
			UserStateFile:     getEnv("AUTH_USER_STATE_FILE", "./data/admin_users.json"),
		},
		ProjectStateFile: getEnv("PROJECT_STATE_FILE", "./data/projects.json"),
		ContactStateFile: getEnv("CONTACT_STATE_FILE", "./data/contacts.json"),
		AuditLogFile:     getEnv("AUDIT_LOG_FILE", "./data/audit.log"),
		AllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.Auth.BootstrapUsername == "" {
		return Config{}, fmt.Errorf("AUTH_BOOTSTRAP_USERNAME must not be empty")
	}
	if cfg.Auth.BootstrapPassword == "" {
		return Config{}, fmt.Errorf("AUTH_BOOTSTRAP_PASSWORD must not be empty")
	}
	if cfg.Auth.PasswordPepper == "" {
		return Config{}, fmt.Errorf("AUTH_PASSWORD_PEPPER must not be empty")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("AUTH_JWT_SECRET must not be empty")
	}
	if cfg.Auth.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_SESSION_TTL_SEC must be > 0")
	}
	if cfg.Auth.SessionStateFile == "" {
		return Config{}, fmt.Errorf("AUTH_SESSION_STATE_FILE must not be empty")
	}
	if cfg.Auth.UserStateFile == "" {
		return Config{}, fmt.Errorf("AUTH_USER_STATE_FILE must not be empty")
	}
	if cfg.ProjectStateFile == "" {
		return Config{}, fmt.Errorf("PROJECT_STATE_FILE must not be empty")
	}
	if cfg.ContactStateFile == "" {
		return Config{}, fmt.Errorf("CONTACT_STATE_FILE must not be empty")
	}
	if cfg.AuditLogFile == "" {
		return Config{}, fmt.Errorf("AUDIT_LOG_FILE must not be empty")
	}

	return cfg, nil
}

// LoadClient resolves the admin console configuration. PORTFOLIO_API_URL
// overrides the endpoint; otherwise APP_ENV=production selects the
// deployed URL and anything else selects the local server.
func LoadClient() (ClientConfig, error) {
	_ = godotenv.Load()

	baseURL := getEnv("PORTFOLIO_API_URL", "")
	if baseURL == "" {
		if getEnv("APP_ENV", "") == "production" {
			baseURL = productionAPIURL
		} else {
			baseURL = localAPIURL
		}
	}

	stateDir := getEnv("PORTFOLIO_STATE_DIR", "")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ClientConfig{}, fmt.Errorf("resolve home dir: %w", err)
		}
		stateDir = filepath.Join(home, ".portfolio-admin")
	}

	cfg := ClientConfig{
		BaseURL:  baseURL,
		Timeout:  time.Duration(getEnvInt("PORTFOLIO_API_TIMEOUT_SEC", 10)) * time.Second,
		StateDir: stateDir,
	}
	if cfg.Timeout <= 0 {
		return ClientConfig{}, fmt.Errorf("PORTFOLIO_API_TIMEOUT_SEC must be > 0")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
