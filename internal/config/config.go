// Package config loads and validates server configuration.
//
// Values are layered: built-in defaults, overridden by environment
// variables, then by an optional YAML file, then by explicit command-line
// flags.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	minSecretLen = 32
)

// Config holds the application configuration.
type Config struct {
	Env             string   `koanf:"env"`
	Port            int      `koanf:"port"`
	DatabaseURL     string   `koanf:"database-url"`
	FrontendOrigins []string `koanf:"frontend-origins"`

	JWTSecret string        `koanf:"jwt-secret"`
	TokenTTL  time.Duration `koanf:"token-ttl"`

	CookieName     string `koanf:"cookie-name"`
	CookieDomain   string `koanf:"cookie-domain"`
	CookieSecure   bool   `koanf:"cookie-secure"`
	CookieSameSite string `koanf:"cookie-samesite"`

	HashAlgorithm string `koanf:"hash-algorithm"`
	BcryptCost    int    `koanf:"bcrypt-cost"`
	HashWorkers   int    `koanf:"hash-workers"`

	AuthRateLimit int `koanf:"auth-rate-limit"` // requests per minute per address
	AuthRateBurst int `koanf:"auth-rate-burst"`

	AuditRetention     time.Duration `koanf:"audit-retention"`
	AuditPruneSchedule string        `koanf:"audit-prune-schedule"`

	LogLevel        string        `koanf:"log-level"`
	ShutdownTimeout time.Duration `koanf:"shutdown-timeout"`
}

// RegisterFlags adds every configuration key to fs. Defaults come from the
// environment when the matching variable is set.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("env", getEnv("APP_ENV", EnvDevelopment), "runtime environment (development|production)")
	fs.Int("port", getEnvInt("PORT", 8080), "HTTP listen port")
	fs.String("database-url", getEnv("DATABASE_URL", "./auth.db"), "SQLite path or postgres:// URL")
	fs.StringSlice("frontend-origins", getEnvList("FRONTEND_ORIGINS", []string{"http://localhost:5173"}), "allowed CORS origins")

	fs.String("jwt-secret", getEnv("JWT_SECRET", ""), "HMAC secret for session tokens")
	fs.Duration("token-ttl", getEnvDuration("TOKEN_TTL", 72*time.Hour), "session token lifetime")

	fs.String("cookie-name", getEnv("COOKIE_NAME", "token"), "session cookie name")
	fs.String("cookie-domain", getEnv("COOKIE_DOMAIN", ""), "session cookie domain")
	fs.Bool("cookie-secure", getEnvBool("COOKIE_SECURE", true), "mark the session cookie Secure")
	fs.String("cookie-samesite", getEnv("COOKIE_SAMESITE", "none"), "session cookie SameSite (none|lax|strict)")

	fs.String("hash-algorithm", getEnv("HASH_ALGORITHM", "bcrypt"), "password hash algorithm (bcrypt|argon2id)")
	fs.Int("bcrypt-cost", getEnvInt("BCRYPT_COST", 12), "bcrypt work factor")
	fs.Int("hash-workers", getEnvInt("HASH_WORKERS", 4), "concurrent password hash operations")

	fs.Int("auth-rate-limit", getEnvInt("AUTH_RATE_LIMIT", 20), "signup/login requests per minute per address")
	fs.Int("auth-rate-burst", getEnvInt("AUTH_RATE_BURST", 5), "signup/login burst per address")

	fs.Duration("audit-retention", getEnvDuration("AUDIT_RETENTION", 720*time.Hour), "how long audit events are kept")
	fs.String("audit-prune-schedule", getEnv("AUDIT_PRUNE_SCHEDULE", "0 3 * * *"), "cron schedule for audit pruning")

	fs.String("log-level", getEnv("LOG_LEVEL", "info"), "log level")
	fs.Duration("shutdown-timeout", getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second), "graceful shutdown timeout")
}

// Load builds the configuration from fs and, when configPath is not empty,
// the YAML file it names. fs must have been set up with RegisterFlags.
func Load(fs *pflag.FlagSet, configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", configPath).Wrap(err)
		}
	}
	// Only changed flags override file values; untouched flags fill gaps.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}

	if cfg.JWTSecret == "" && cfg.Env == EnvDevelopment {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for unsafe or inconsistent values.
func (c *Config) Validate() error {
	fail := oops.Code("CONFIG_INVALID")

	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fail.Errorf("unknown env %q", c.Env)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fail.Errorf("port %d out of range", c.Port)
	}
	if c.DatabaseURL == "" {
		return fail.Errorf("database-url is required")
	}

	if c.JWTSecret == "" {
		return fail.Errorf("jwt-secret is required")
	}
	if c.Env != EnvDevelopment && len(c.JWTSecret) < minSecretLen {
		return fail.Errorf("jwt-secret must be at least %d bytes", minSecretLen)
	}
	if c.TokenTTL <= 0 {
		return fail.Errorf("token-ttl must be positive")
	}

	for _, origin := range c.FrontendOrigins {
		if strings.Contains(origin, "*") {
			return fail.Errorf("frontend-origins must list explicit origins, got %q", origin)
		}
	}

	if c.CookieName == "" {
		return fail.Errorf("cookie-name is required")
	}
	sameSite, err := c.SameSite()
	if err != nil {
		return err
	}
	if c.Env != EnvDevelopment && !c.CookieSecure {
		return fail.Errorf("cookie-secure must be enabled outside development")
	}
	if sameSite == http.SameSiteNoneMode && !c.CookieSecure {
		return fail.Errorf("cookie-samesite none requires cookie-secure")
	}

	switch c.HashAlgorithm {
	case "bcrypt", "argon2id":
	default:
		return fail.Errorf("unknown hash-algorithm %q", c.HashAlgorithm)
	}
	if c.HashWorkers < 1 {
		return fail.Errorf("hash-workers must be at least 1")
	}
	if c.AuthRateLimit < 1 || c.AuthRateBurst < 1 {
		return fail.Errorf("auth-rate-limit and auth-rate-burst must be at least 1")
	}

	if c.AuditRetention <= 0 {
		return fail.Errorf("audit-retention must be positive")
	}
	if _, err := cron.ParseStandard(c.AuditPruneSchedule); err != nil {
		return fail.With("schedule", c.AuditPruneSchedule).Wrapf(err, "invalid audit-prune-schedule")
	}
	if c.ShutdownTimeout <= 0 {
		return fail.Errorf("shutdown-timeout must be positive")
	}
	return nil
}

// SameSite converts CookieSameSite to its net/http value.
func (c *Config) SameSite() (http.SameSite, error) {
	switch strings.ToLower(c.CookieSameSite) {
	case "none":
		return http.SameSiteNoneMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	default:
		return 0, oops.Code("CONFIG_INVALID").Errorf("unknown cookie-samesite %q", c.CookieSameSite)
	}
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func randomSecret() (string, error) {
	b := make([]byte, minSecretLen)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("CONFIG_SECRET_FAILED").Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
