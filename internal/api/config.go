package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/maprix/maprix/internal/battery"
)

// Config holds the server configuration, loaded from environment variables.
type Config struct {
	ListenAddr      string
	DBPath          string
	PhotoDir        string
	ShutdownTimeout time.Duration
	LogFormat       string // "json" (default) or "text"
	LogLevel        string // "debug", "info" (default), "warn", "error"
	MaxBodyBytes    int64

	RateLimitIngest int // POST /api/registrar per IP per minute (default: 120)
	RateLimitOther  int // all other /api routes per IP per minute (default: 600)

	Battery battery.Thresholds

	CORSAllowedOrigins []string // allowed origins for the map page; empty = disabled

	WebhookURL    string // receives stored reports and checklists; empty = disabled
	WebhookSecret string // HMAC key for X-Maprix-Signature

	RateLimitEventRetention time.Duration // retention period for rate limit events (default: 30 days)
}

// LoadConfig reads configuration from environment variables with sensible defaults.
func LoadConfig() Config {
	cfg := Config{
		ListenAddr:      ":5000",
		DBPath:          "./data/maprix.db",
		PhotoDir:        "./data/fotos",
		ShutdownTimeout: 30 * time.Second,
		LogFormat:       "json",
		LogLevel:        "info",
		MaxBodyBytes:    32 << 20,

		RateLimitIngest: 120,
		RateLimitOther:  600,

		Battery: battery.DefaultThresholds,

		RateLimitEventRetention: 30 * 24 * time.Hour,
	}

	if v := os.Getenv("MAPRIX_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("MAPRIX_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("MAPRIX_PHOTO_DIR"); v != "" {
		cfg.PhotoDir = v
	}
	if v := os.Getenv("MAPRIX_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("MAPRIX_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("MAPRIX_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if n := positiveInt("MAPRIX_MAX_BODY_MB"); n > 0 {
		cfg.MaxBodyBytes = int64(n) << 20
	}

	if n := positiveInt("MAPRIX_RATE_LIMIT_INGEST"); n > 0 {
		cfg.RateLimitIngest = n
	}
	if n := positiveInt("MAPRIX_RATE_LIMIT"); n > 0 {
		cfg.RateLimitOther = n
	}

	if n := positiveInt("MAPRIX_BATTERY_WARN_MONTHS"); n > 0 {
		cfg.Battery.WarnMonths = n
	}
	if n := positiveInt("MAPRIX_BATTERY_REPLACE_MONTHS"); n > 0 {
		cfg.Battery.ReplaceMonths = n
	}
	if cfg.Battery.ReplaceMonths < cfg.Battery.WarnMonths {
		cfg.Battery.ReplaceMonths = cfg.Battery.WarnMonths
	}

	if v := os.Getenv("MAPRIX_RATE_LIMIT_EVENT_RETENTION"); v != "" {
		if d := parseDaysDuration(v); d > 0 {
			cfg.RateLimitEventRetention = d
		}
	}

	if v := os.Getenv("MAPRIX_CORS_ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	cfg.WebhookURL = strings.TrimSpace(os.Getenv("MAPRIX_WEBHOOK_URL"))
	cfg.WebhookSecret = os.Getenv("MAPRIX_WEBHOOK_SECRET")

	return cfg
}

func positiveInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// parseDaysDuration parses a string like "90d", "30d" into a time.Duration.
// Falls back to time.ParseDuration for standard Go durations.
func parseDaysDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		numStr := strings.TrimSuffix(s, "d")
		if n, err := strconv.Atoi(numStr); err == nil && n > 0 {
			return time.Duration(n) * 24 * time.Hour
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return 0
}
