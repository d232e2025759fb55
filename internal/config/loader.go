package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		parts := splitList(value)
		switch field.Type().Elem().Kind() {
		case reflect.String:
			field.Set(reflect.ValueOf(parts))
		case reflect.Int:
			ints := make([]int, 0, len(parts))
			for _, p := range parts {
				n, err := strconv.Atoi(p)
				if err != nil {
					return fmt.Errorf("invalid integer %q in list", p)
				}
				ints = append(ints, n)
			}
			field.Set(reflect.ValueOf(ints))
		default:
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// splitList splits comma-separated values and drops blanks.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// API
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, fmt.Sprintf("API_BASE_URL (%q) must be an http(s) URL", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, "API_TIMEOUT must be positive")
	}

	// Session
	switch c.Session.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Session.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when SESSION_STORE=postgres")
		}
		if c.Session.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Session.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Session.MaxConns < c.Session.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Session.MaxConns, c.Session.MinConns))
		}
	case StoreSQLite:
		if c.Session.SQLitePath == "" {
			errs = append(errs, "SQLITE_PATH is required when SESSION_STORE=sqlite")
		}
	default:
		errs = append(errs, fmt.Sprintf("SESSION_STORE (%q) must be one of: memory, postgres, sqlite", c.Session.Store))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, "SESSION_COOKIE_NAME must not be empty")
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, "SESSION_TTL must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, "SESSION_SWEEP_INTERVAL must be positive")
	}

	// Table
	if _, err := language.Parse(c.Table.CollationLocale); err != nil {
		errs = append(errs, fmt.Sprintf("TABLE_COLLATION_LOCALE (%q) is not a valid language tag", c.Table.CollationLocale))
	}
	if len(c.Table.RowsPerPageOptions) == 0 {
		errs = append(errs, "TABLE_ROWS_PER_PAGE_OPTIONS must list at least one size")
	}
	for _, n := range c.Table.RowsPerPageOptions {
		if n <= 0 {
			errs = append(errs, fmt.Sprintf("TABLE_ROWS_PER_PAGE_OPTIONS entry %d must be positive", n))
		}
	}
	if len(c.Table.RowsPerPageOptions) > 0 && !slices.Contains(c.Table.RowsPerPageOptions, c.Table.RowsPerPage) {
		errs = append(errs, fmt.Sprintf("TABLE_ROWS_PER_PAGE (%d) must be one of TABLE_ROWS_PER_PAGE_OPTIONS %v",
			c.Table.RowsPerPage, c.Table.RowsPerPageOptions))
	}

	// Export
	if c.Export.MaxRows <= 0 {
		errs = append(errs, "EXPORT_MAX_ROWS must be positive")
	}
	if c.Export.PageSize <= 0 {
		errs = append(errs, "EXPORT_PAGE_SIZE must be positive")
	}
	if c.Export.MaxConcurrent <= 0 {
		errs = append(errs, "EXPORT_MAX_CONCURRENT must be positive")
	}
	if c.Export.MaxWaitTime <= 0 {
		errs = append(errs, "EXPORT_MAX_WAIT_TIME must be positive")
	}

	// Rate limit
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.LoginPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_LOGIN_PER_MINUTE must be positive when rate limiting is enabled")
	}

	// Logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Locale returns the parsed collation locale, falling back to English.
func (c TableConfig) Locale() language.Tag {
	tag, err := language.Parse(c.CollationLocale)
	if err != nil {
		return language.English
	}
	return tag
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("API: {BaseURL: %q, Timeout: %s}, ", c.API.BaseURL, c.API.Timeout))
	dbURL := ""
	if c.Session.DatabaseURL != "" {
		dbURL = "[MASKED]"
	}
	b.WriteString(fmt.Sprintf("Session: {Store: %q, DatabaseURL: %s, TTL: %s}, ",
		c.Session.Store, dbURL, c.Session.TTL))
	b.WriteString(fmt.Sprintf("Table: {Locale: %q, RowsPerPage: %d, Options: %v}, ",
		c.Table.CollationLocale, c.Table.RowsPerPage, c.Table.RowsPerPageOptions))
	b.WriteString(fmt.Sprintf("Export: {MaxRows: %d, MaxConcurrent: %d}, ",
		c.Export.MaxRows, c.Export.MaxConcurrent))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
