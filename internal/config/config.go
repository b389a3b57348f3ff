// Package config loads runtime settings from the environment, an optional
// .env file and an optional TOML file.
//
// Precedence, highest first: process environment, TOML file named by
// SUPCAL_CONFIG, built-in defaults. Keys in the TOML file use the same names
// as the environment variables, case-insensitively:
//
//	port = 8080
//	data_backend = "postgres"
//	database_url = "postgres://supcal@localhost/supcal?sslmode=disable"
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"

	"supcal/internal/core"
	"supcal/internal/log"
)

// FileEnv names the variable pointing at the TOML overlay.
const FileEnv = "SUPCAL_CONFIG"

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	AllowedOrigins     []string
	TrustedProxies     []string
	MetricsEnabled     bool

	// Storage
	DataBackend  string
	SQLiteDBPath string
	DatabaseURL  string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Engine
	DashboardTopLimit      int
	DashboardUpcomingLimit int
	RefreshWorkers         int

	// Scheduling and reminders
	RolloverCron   string
	ReminderCron   string
	TelegramToken  string
	TelegramChatID int64

	// Calendar feed
	CalendarFeedToken string
	CalendarCacheTTL  time.Duration

	LogLevel  string
	LogFormat string
}

// source resolves a key against the environment, then the file values.
type source struct {
	file map[string]string
}

// Load reads the configuration. It fails only when SUPCAL_CONFIG names a
// file that cannot be read or parsed.
func Load() (*Config, error) {
	file, err := readFile(os.Getenv(FileEnv))
	if err != nil {
		return nil, err
	}
	s := source{file: file}

	cfg := &Config{
		Port:               s.getEnv("PORT", "8081"),
		RateLimitPerMinute: s.getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		AllowedOrigins:     splitList(s.getEnv("ALLOWED_ORIGINS", "")),
		TrustedProxies:     splitList(s.getEnv("TRUSTED_PROXIES", "")),
		MetricsEnabled:     s.getEnvBool("METRICS_ENABLED", true),

		DataBackend:  strings.ToLower(s.getEnv("DATA_BACKEND", BackendSQLite)),
		SQLiteDBPath: s.getEnv("SQLITE_DB_PATH", "./data/supcal.db"),
		DatabaseURL:  s.getEnv("DATABASE_URL", ""),

		AMQPURL:      s.getEnv("AMQP_URL", ""),
		AMQPExchange: s.getEnv("AMQP_EXCHANGE", "supcal"),
		AMQPQueue:    s.getEnv("AMQP_QUEUE", "mirror_records"),

		GoogleSpreadsheetID: s.getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     s.getEnv("GOOGLE_SHEET_NAME", "Records"),

		DashboardTopLimit:      s.getEnvInt("DASHBOARD_TOP_LIMIT", 5),
		DashboardUpcomingLimit: s.getEnvInt("DASHBOARD_UPCOMING_LIMIT", 5),
		RefreshWorkers:         s.getEnvInt("REFRESH_WORKERS", 4),

		RolloverCron:   s.getEnv("ROLLOVER_CRON", "@every 1h"),
		ReminderCron:   s.getEnv("REMINDER_CRON", "0 9 * * *"),
		TelegramToken:  s.getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatID: s.getEnvInt64("TELEGRAM_CHAT_ID", 0),

		CalendarFeedToken: s.getEnv("CALENDAR_FEED_TOKEN", ""),
		CalendarCacheTTL:  s.getEnvDuration("CALENDAR_CACHE_TTL", 5*time.Minute),

		LogLevel:  s.getEnv("LOG_LEVEL", "info"),
		LogFormat: s.getEnv("LOG_FORMAT", string(log.FormatText)),
	}

	return cfg, nil
}

// Limits returns the dashboard list sizes.
func (c *Config) Limits() core.Limits {
	return core.Limits{Top: c.DashboardTopLimit, Upcoming: c.DashboardUpcomingLimit}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: must be a postgres:// or postgresql:// URL")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v",
			c.DataBackend, []string{BackendMemory, BackendSQLite, BackendPostgres}))
	}

	// Validate AMQP URL if provided
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid TRUSTED_PROXIES entry '%s': must be a CIDR", cidr))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate engine limits
	if c.DashboardTopLimit < 1 || c.DashboardTopLimit > 100 {
		errors = append(errors, fmt.Sprintf("invalid dashboard top limit %d: must be between 1 and 100", c.DashboardTopLimit))
	}
	if c.DashboardUpcomingLimit < 1 || c.DashboardUpcomingLimit > 100 {
		errors = append(errors, fmt.Sprintf("invalid dashboard upcoming limit %d: must be between 1 and 100", c.DashboardUpcomingLimit))
	}
	if c.RefreshWorkers < 1 || c.RefreshWorkers > 64 {
		errors = append(errors, fmt.Sprintf("invalid refresh workers %d: must be between 1 and 64", c.RefreshWorkers))
	}

	// Validate schedules
	if _, err := cron.ParseStandard(c.RolloverCron); err != nil {
		errors = append(errors, fmt.Sprintf("invalid ROLLOVER_CRON '%s': %v", c.RolloverCron, err))
	}
	if _, err := cron.ParseStandard(c.ReminderCron); err != nil {
		errors = append(errors, fmt.Sprintf("invalid REMINDER_CRON '%s': %v", c.ReminderCron, err))
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		errors = append(errors, "TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	if c.CalendarCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid calendar cache TTL %v: must not be negative", c.CalendarCacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if _, err := log.ParseFormat(c.LogFormat); err != nil {
		errors = append(errors, err.Error())
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// readFile loads a flat TOML file into upper-cased keys. An empty path
// yields no values.
func readFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case map[string]any:
			return nil, fmt.Errorf("read config file %s: key %q: tables are not supported", path, k)
		case []any:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			out[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			out[strings.ToUpper(k)] = fmt.Sprint(val)
		}
	}
	return out, nil
}

func (s source) lookup(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	value, ok := s.file[key]
	return value, ok && value != ""
}

func (s source) getEnv(key, defaultValue string) string {
	if value, ok := s.lookup(key); ok {
		return value
	}
	return defaultValue
}

func (s source) getEnvInt(key string, defaultValue int) int {
	if value, ok := s.lookup(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func (s source) getEnvInt64(key string, defaultValue int64) int64 {
	if value, ok := s.lookup(key); ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func (s source) getEnvBool(key string, defaultValue bool) bool {
	if value, ok := s.lookup(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func (s source) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := s.lookup(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
