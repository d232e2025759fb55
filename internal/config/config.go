// Package config provides centralized configuration management for the
// HR admin console. Values come from environment variables with defaults.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Session  SessionConfig
	Table    TableConfig
	Export   ExportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// Addr returns the server address in host:port format.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + itoa(c.Port)
}

// APIConfig describes the upstream HR REST API.
type APIConfig struct {
	BaseURL            string        `env:"API_BASE_URL" envAlt:"HR_API_URL" required:"true"`
	Timeout            time.Duration `env:"API_TIMEOUT" default:"15s"`
	OrgEndpoint        string        `env:"API_ORG_ENDPOINT" default:"organization/tree"`
	AttendanceEndpoint string        `env:"API_ATTENDANCE_ENDPOINT" default:"attendance"`
}

// Session store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// SessionConfig selects and tunes the server-side session store.
type SessionConfig struct {
	Store         string        `env:"SESSION_STORE" default:"memory"`
	DatabaseURL   string        `env:"DATABASE_URL" envAlt:"DB_URL"`
	SQLitePath    string        `env:"SQLITE_PATH" default:"hradmin-sessions.db"`
	MaxConns      int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns      int           `env:"DB_MIN_CONNS" default:"1"`
	CookieName    string        `env:"SESSION_COOKIE_NAME" default:"hradmin_session"`
	CookieSecure  bool          `env:"SESSION_COOKIE_SECURE" default:"false"`
	TTL           time.Duration `env:"SESSION_TTL" default:"12h"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"10m"`
}

// TableConfig holds data table defaults.
type TableConfig struct {
	// CollationLocale is a BCP 47 tag used for locale-aware text sorting.
	CollationLocale    string `env:"TABLE_COLLATION_LOCALE" default:"en"`
	RowsPerPage        int    `env:"TABLE_ROWS_PER_PAGE" default:"10"`
	RowsPerPageOptions []int  `env:"TABLE_ROWS_PER_PAGE_OPTIONS" default:"5,10,25,50"`
}

// ExportConfig bounds spreadsheet exports.
type ExportConfig struct {
	MaxRows       int           `env:"EXPORT_MAX_ROWS" default:"10000"`
	PageSize      int           `env:"EXPORT_PAGE_SIZE" default:"100"`
	MaxConcurrent int           `env:"EXPORT_MAX_CONCURRENT" default:"3"`
	MaxWaitTime   time.Duration `env:"EXPORT_MAX_WAIT_TIME" default:"10s"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`
	// LoginPerMinute applies to POST /login only.
	LoginPerMinute int `env:"RATE_LIMIT_LOGIN_PER_MINUTE" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a list of CIDR ranges whose X-Forwarded-For and
	// X-Real-IP headers are honored. Empty means never trust them.
	TrustedProxies []string `env:"TRUSTED_PROXIES" default:""`
	EnableCSP      bool     `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var b [20]byte
	pos := len(b)
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		b[pos] = '-'
	}
	return string(b[pos:])
}
