package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	PhonePe  PhonePeConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// PhonePe public UAT credentials. Not secrets; safe defaults for sandbox only.
const (
	sandboxMerchantID = "PGTESTPAYUAT"
	sandboxSaltKey    = "099eb0cd-02cf-4e2a-8aca-3e6c6aff0399"
	sandboxSaltIndex  = "1"
	sandboxBaseURL    = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	prodBaseURL       = "https://api.phonepe.com/apis/hermes"
)

// PhonePeConfig holds the active credential set for exactly one environment
// tier (sandbox or production), resolved once at startup.
type PhonePeConfig struct {
	Environment string // "sandbox" | "production"
	MerchantID  string
	SaltKey     string
	SaltIndex   string
	BaseURL     string
	AppBaseURL  string // absolute, no trailing slash

	// which fields fell back to the built-in sandbox defaults
	defaulted []string
}

// ConfigStatus is the outcome of validating a PhonePeConfig. Missing secrets
// are reported here instead of panicking so the caller decides whether to
// proceed (sandbox) or hard-fail (production).
type ConfigStatus struct {
	IsValid bool
	Errors  []string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8080"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "nibog:nibog@tcp(localhost:3306)/nibog?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "nibog",
		},
		PhonePe: LoadPhonePe(),
	}
}

// LoadPhonePe resolves the gateway credential set from the environment.
// Precedence per field: environment-tier variable (PHONEPE_PROD_* or
// PHONEPE_SANDBOX_*) -> generic variable (PHONEPE_*) -> sandbox default.
// NEXT_PUBLIC_APP_URL is honoured as a fallback for APP_BASE_URL so the
// backend can share deploy config with the legacy frontend.
func LoadPhonePe() PhonePeConfig {
	env := strings.ToLower(getenv("PHONEPE_ENVIRONMENT", "sandbox"))
	if env != "production" {
		env = "sandbox"
	}
	tier := "SANDBOX"
	if env == "production" {
		tier = "PROD"
	}

	cfg := PhonePeConfig{Environment: env}
	cfg.MerchantID = cfg.resolve("MerchantID",
		[]string{"PHONEPE_" + tier + "_MERCHANT_ID", "PHONEPE_MERCHANT_ID"}, sandboxMerchantID)
	cfg.SaltKey = cfg.resolve("SaltKey",
		[]string{"PHONEPE_" + tier + "_SALT_KEY", "PHONEPE_SALT_KEY"}, sandboxSaltKey)
	cfg.SaltIndex = cfg.resolve("SaltIndex",
		[]string{"PHONEPE_" + tier + "_SALT_INDEX", "PHONEPE_SALT_INDEX"}, sandboxSaltIndex)

	defaultBase := sandboxBaseURL
	if env == "production" {
		defaultBase = prodBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.resolve("BaseURL",
		[]string{"PHONEPE_" + tier + "_BASE_URL", "PHONEPE_BASE_URL"}, defaultBase), "/")

	cfg.AppBaseURL = strings.TrimSuffix(cfg.resolve("AppBaseURL",
		[]string{"APP_BASE_URL", "NEXT_PUBLIC_APP_URL"}, "http://localhost:3000"), "/")

	return cfg
}

func (c *PhonePeConfig) resolve(field string, keys []string, def string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	c.defaulted = append(c.defaulted, field)
	return def
}

// Validate reports whether the config is usable for its environment tier.
// Never panics: production with defaulted credentials is invalid, sandbox
// merely runs on the public UAT set.
func (c *PhonePeConfig) Validate() ConfigStatus {
	var errs []string
	if c.Environment == "production" {
		for _, f := range c.defaulted {
			switch f {
			case "MerchantID", "SaltKey", "SaltIndex":
				errs = append(errs, fmt.Sprintf("%s not set for production (sandbox default would be used)", f))
			}
		}
	}
	if !strings.HasPrefix(c.AppBaseURL, "http://") && !strings.HasPrefix(c.AppBaseURL, "https://") {
		errs = append(errs, "AppBaseURL must be an absolute http(s) URL")
	}
	if c.MerchantID == "" {
		errs = append(errs, "MerchantID is empty")
	}
	if c.SaltKey == "" {
		errs = append(errs, "SaltKey is empty")
	}
	if c.SaltIndex == "" {
		errs = append(errs, "SaltIndex is empty")
	}
	return ConfigStatus{IsValid: len(errs) == 0, Errors: errs}
}

// IsDefaulted reports whether the named field fell back to a built-in default.
func (c *PhonePeConfig) IsDefaulted(field string) bool {
	for _, f := range c.defaulted {
		if f == field {
			return true
		}
	}
	return false
}

// LogSummary logs a redacted view of the gateway config: booleans for
// "is set", never the secret values themselves.
func (c *PhonePeConfig) LogSummary() {
	log.Printf("[PHONEPE config] env=%s merchant_set=%v salt_key_set=%v salt_index=%s base_url=%s app_base_url=%s",
		c.Environment,
		!c.IsDefaulted("MerchantID"),
		!c.IsDefaulted("SaltKey"),
		c.SaltIndex,
		c.BaseURL,
		c.AppBaseURL,
	)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
