package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"breakeven/internal/core"
)

// ConfigFileEnv names the optional TOML file read before the environment.
const ConfigFileEnv = "BREAKEVEN_CONFIG"

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Database
	DataBackend  string
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Email delivery
	Mailer      string
	MailerDelay time.Duration

	// Google Sheets archive
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Currency convention
	CurrencyLocale         string
	CurrencyCode           string
	CurrencySymbol         string
	CurrencyFractionDigits int

	// HTTP protection and caching
	RateLimitPerMinute int
	TrustedProxies     []string
	ReportCacheSize    int
	ReportCacheTTL     time.Duration

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration
}

// key, environment variable, default
var settings = []struct {
	key string
	env string
	def any
}{
	{"port", "PORT", "8081"},
	{"log_level", "LOG_LEVEL", "info"},
	{"data_backend", "DATA_BACKEND", "memory"},
	{"sqlite_db_path", "SQLITE_DB_PATH", "./data/breakeven.db"},
	{"amqp_url", "AMQP_URL", ""},
	{"amqp_exchange", "AMQP_EXCHANGE", "breakeven"},
	{"amqp_queue", "AMQP_QUEUE", "breakeven_jobs"},
	{"mailer", "MAILER", "log"},
	{"mailer_delay", "MAILER_DELAY", "1s"},
	{"google_spreadsheet_id", "GOOGLE_SPREADSHEET_ID", ""},
	{"google_sheet_name", "GOOGLE_SHEET_NAME", "Calculations"},
	{"google_service_account_json", "GOOGLE_SERVICE_ACCOUNT_JSON", ""},
	{"google_service_account_file", "GOOGLE_SERVICE_ACCOUNT_FILE", ""},
	{"currency_locale", "CURRENCY_LOCALE", "en-US"},
	{"currency_code", "CURRENCY_CODE", "USD"},
	{"currency_symbol", "CURRENCY_SYMBOL", "$"},
	{"currency_fraction_digits", "CURRENCY_FRACTION_DIGITS", 2},
	{"rate_limit_per_minute", "RATE_LIMIT_PER_MINUTE", 60},
	{"trusted_proxies", "TRUSTED_PROXIES", ""},
	{"report_cache_size", "REPORT_CACHE_SIZE", 100},
	{"report_cache_ttl", "REPORT_CACHE_TTL", "10m"},
	{"sync_batch_size", "SYNC_BATCH_SIZE", 10},
	{"sync_interval", "SYNC_INTERVAL", "30s"},
}

// Load reads defaults, then the TOML file named by BREAKEVEN_CONFIG if set,
// then environment variables. Later sources win.
func Load() (*Config, error) {
	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", s.env, err)
		}
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return &Config{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log_level"),

		DataBackend:  v.GetString("data_backend"),
		SQLiteDBPath: v.GetString("sqlite_db_path"),

		AMQPURL:      v.GetString("amqp_url"),
		AMQPExchange: v.GetString("amqp_exchange"),
		AMQPQueue:    v.GetString("amqp_queue"),

		Mailer:      v.GetString("mailer"),
		MailerDelay: v.GetDuration("mailer_delay"),

		GoogleSpreadsheetID:      v.GetString("google_spreadsheet_id"),
		GoogleSheetName:          v.GetString("google_sheet_name"),
		GoogleServiceAccountJSON: v.GetString("google_service_account_json"),
		GoogleServiceAccountFile: v.GetString("google_service_account_file"),

		CurrencyLocale:         v.GetString("currency_locale"),
		CurrencyCode:           v.GetString("currency_code"),
		CurrencySymbol:         v.GetString("currency_symbol"),
		CurrencyFractionDigits: v.GetInt("currency_fraction_digits"),

		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		TrustedProxies:     splitList(v.GetStringSlice("trusted_proxies")),
		ReportCacheSize:    v.GetInt("report_cache_size"),
		ReportCacheTTL:     v.GetDuration("report_cache_ttl"),

		SyncBatchSize: v.GetInt("sync_batch_size"),
		SyncInterval:  v.GetDuration("sync_interval"),
	}, nil
}

// splitList flattens comma or whitespace separated entries, as given in
// TRUSTED_PROXIES or a TOML array.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// CurrencyFormat builds the configured currency convention.
func (c *Config) CurrencyFormat() (core.CurrencyFormat, error) {
	return core.NewCurrencyFormat(c.CurrencyLocale, c.CurrencyCode, c.CurrencySymbol, c.CurrencyFractionDigits)
}

// SheetsEnabled reports whether saved calculations are archived to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
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

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
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

	// Validate mailer
	validMailers := []string{"log", "queue"}
	if !slices.Contains(validMailers, c.Mailer) {
		errors = append(errors, fmt.Sprintf("invalid mailer '%s': must be one of %v", c.Mailer, validMailers))
	}
	if c.Mailer == "queue" && c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required when using the queue mailer")
	}
	if c.MailerDelay < 0 {
		errors = append(errors, fmt.Sprintf("invalid mailer delay %v: must not be negative", c.MailerDelay))
	}

	// Validate Google Sheets configuration if an archive is configured
	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided when GOOGLE_SPREADSHEET_ID is set")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate currency convention
	if _, err := c.CurrencyFormat(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid currency format: %v", err))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR such as 203.0.113.0/24", cidr))
		}
	}
	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}
	if c.ReportCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must be at least 1 second", c.ReportCacheTTL))
	}

	// Validate worker configuration
	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
