// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage selection, uploads, admin auth, Telegram notifications,
// rate limiting and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // NOTIFY_TIMEZONE must resolve in minimal images

	"golang.org/x/text/language"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// StorageConfig selects the persistence strategy.
type StorageConfig struct {
	Driver  string // memory|file|sql
	DataDir string // file strategy root
	Dialect string // sqlite|postgres
	DSN     string // sqlite path or postgres DSN
}

// UploadConfig describes the managed uploads directory.
type UploadConfig struct {
	Dir       string // raw files only
	URLPrefix string // served path prefix, e.g. "/uploads"
	MaxBytes  int64
}

// AuthConfig configures admin login.
type AuthConfig struct {
	DefaultPassword     string        // seeded into a fresh settings row
	Secret              string        // HMAC key; empty means random per process
	TokenTTL            time.Duration // admin token lifetime
	AllowPasswordBearer bool          // accept the raw password as bearer
}

// NotifyConfig configures Telegram delivery and message rendering.
type NotifyConfig struct {
	APIEndpoint   string         // Bot API endpoint format (token, method)
	Timeout       time.Duration  // per-call HTTP timeout
	Concurrency   int            // parallel deliveries per broadcast
	TimezoneName  string         // NOTIFY_TIMEZONE
	Location      *time.Location // resolved TimezoneName
	LocaleName    string         // NOTIFY_LOCALE
	Locale        language.Tag   // parsed LocaleName
	WebhookSecret string         // expected X-Telegram-Bot-Api-Secret-Token
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "salon-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	LogFile     string // optional rotating log file
	APIBasePath string // base path for API routes

	Storage StorageConfig
	Uploads UploadConfig
	Auth    AuthConfig
	Notify  NotifyConfig

	// Rate limiting (booking form and login)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		LogFile:     getenv("LOG_FILE", ""),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		Storage: StorageConfig{
			Driver:  strings.ToLower(getenv("STORAGE_DRIVER", "file")),
			DataDir: getenv("DATA_DIR", "data"),
			Dialect: strings.ToLower(getenv("DB_DIALECT", "sqlite")),
			DSN:     getenv("DB_DSN", "salon.db"),
		},
		Uploads: UploadConfig{
			Dir:       getenv("UPLOADS_DIR", "uploads"),
			URLPrefix: normalizeBasePath(getenv("UPLOADS_URL_PREFIX", "/uploads")),
			MaxBytes:  getint64("MAX_UPLOAD_BYTES", 5<<20),
		},
		Auth: AuthConfig{
			DefaultPassword:     getenv("DEFAULT_ADMIN_PASSWORD", "admin123"),
			Secret:              getenv("AUTH_SECRET", ""),
			TokenTTL:            getdur("AUTH_TOKEN_TTL", 12*time.Hour),
			AllowPasswordBearer: getbool("AUTH_ALLOW_PASSWORD_BEARER", false),
		},
		Notify: NotifyConfig{
			APIEndpoint:   getenv("TELEGRAM_API_ENDPOINT", "https://api.telegram.org/bot%s/%s"),
			Timeout:       getdur("TELEGRAM_TIMEOUT", 10*time.Second),
			Concurrency:   getint("NOTIFY_CONCURRENCY", 4),
			TimezoneName:  getenv("NOTIFY_TIMEZONE", "Europe/Moscow"),
			LocaleName:    getenv("NOTIFY_LOCALE", "ru"),
			WebhookSecret: getenv("TELEGRAM_WEBHOOK_SECRET", ""),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "salon-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Storage.Dialect == "sqlite3" {
		cfg.Storage.Dialect = "sqlite"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.Storage.Driver {
	case "memory", "file", "sql":
	default:
		return cfg, errors.New("STORAGE_DRIVER must be one of: memory, file, sql")
	}
	switch cfg.Storage.Dialect {
	case "sqlite", "postgres":
	default:
		return cfg, errors.New("DB_DIALECT must be one of: sqlite, postgres")
	}
	if cfg.Storage.Driver == "file" && strings.TrimSpace(cfg.Storage.DataDir) == "" {
		return cfg, errors.New("DATA_DIR must not be empty")
	}
	if cfg.Storage.Driver == "sql" && strings.TrimSpace(cfg.Storage.DSN) == "" {
		return cfg, errors.New("DB_DSN must not be empty")
	}
	if strings.TrimSpace(cfg.Uploads.Dir) == "" {
		return cfg, errors.New("UPLOADS_DIR must not be empty")
	}
	if cfg.Uploads.URLPrefix == "/" {
		return cfg, errors.New("UPLOADS_URL_PREFIX must not be the root path")
	}
	if cfg.Uploads.MaxBytes <= 0 {
		return cfg, errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return cfg, errors.New("AUTH_TOKEN_TTL must be > 0")
	}
	if cfg.Notify.Timeout <= 0 {
		return cfg, errors.New("TELEGRAM_TIMEOUT must be > 0")
	}
	if !strings.Contains(cfg.Notify.APIEndpoint, "%s") {
		return cfg, errors.New("TELEGRAM_API_ENDPOINT must contain %s placeholders for token and method")
	}
	if cfg.Notify.Concurrency < 1 {
		return cfg, errors.New("NOTIFY_CONCURRENCY must be >= 1")
	}
	loc, err := time.LoadLocation(cfg.Notify.TimezoneName)
	if err != nil {
		return cfg, fmt.Errorf("NOTIFY_TIMEZONE: %w", err)
	}
	cfg.Notify.Location = loc
	tag, err := language.Parse(cfg.Notify.LocaleName)
	if err != nil {
		return cfg, fmt.Errorf("NOTIFY_LOCALE: %w", err)
	}
	cfg.Notify.Locale = tag
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
