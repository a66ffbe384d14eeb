package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"github.com/teemow/calsync/internal/cache"
	"github.com/teemow/calsync/internal/conferencing"
	"github.com/teemow/calsync/internal/google"
	"github.com/teemow/calsync/internal/logging"
	"github.com/teemow/calsync/internal/server"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheValkey = "valkey"
)

// Tool groups that can be registered on the MCP server.
const (
	ToolGroupCalendar = "calendar"
	ToolGroupMeet     = "meet"
)

const (
	defaultSQLiteDSN     = "calsync.db"
	defaultCachePrefix   = "calsync:"
	defaultGoogleTimeout = 30 * time.Second
	defaultRateLimitRPS  = 10
	defaultRateBurst     = 20
)

// Config is the complete runtime configuration of the serve command.
type Config struct {
	HTTP       HTTPConfig
	Log        LogConfig
	Store      StoreConfig
	Cache      CacheConfig
	Google     GoogleConfig
	Meet       MeetConfig
	Standalone StandaloneConfig
	RateLimit  RateLimitConfig
	MCP        MCPConfig
	Metrics    MetricsConfig
}

type HTTPConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type StoreConfig struct {
	// Driver is StoreMemory or StoreSQLite.
	Driver string
	DSN    string
}

type CacheConfig struct {
	// Backend is CacheNone, CacheMemory or CacheValkey.
	Backend string
	Prefix  string
	Valkey  cache.ValkeyConfig
}

// GoogleConfig configures the external calendar adapter.
type GoogleConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	// TokenDir holds one OAuth token file per user.
	TokenDir   string
	CalendarID string
	Timeout    time.Duration
}

// OAuth returns the client registration for the Google APIs.
func (g GoogleConfig) OAuth() google.OAuthConfig {
	return google.OAuthConfig{ClientID: g.ClientID, ClientSecret: g.ClientSecret}
}

// MeetConfig enables join-info enrichment from the Meet API.
type MeetConfig struct {
	Enabled bool
}

// StandaloneConfig enables the standalone meeting provider.
type StandaloneConfig struct {
	Enabled bool
	conferencing.StandaloneConfig
}

type RateLimitConfig struct {
	// RPS of zero disables REST rate limiting.
	RPS   float64
	Burst int
}

type MCPConfig struct {
	Enabled bool
	// Yolo registers the write tools. Without it the MCP surface is read-only.
	Yolo             bool
	DisableStreaming bool
	ToolGroups       []string
}

type MetricsConfig struct {
	Enabled bool
	Addr    string
}

// LoadConfig loads a .env file from the working directory, when one
// exists, and builds a Config from the environment.
func LoadConfig() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return ConfigFromEnv(), nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	// Variables already set in the process environment win.
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for anything unset or unparseable.
func ConfigFromEnv() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:         getEnvOrDefault("HTTP_ADDR", server.DefaultHTTPAddr),
			ReadTimeout:  getEnvDurationOrDefault("HTTP_READ_TIMEOUT", server.DefaultReadTimeout),
			WriteTimeout: getEnvDurationOrDefault("HTTP_WRITE_TIMEOUT", server.DefaultWriteTimeout),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", logging.FormatText),
		},
		Store: StoreConfig{
			Driver: getEnvOrDefault("STORE_DRIVER", StoreSQLite),
			DSN:    getEnvOrDefault("STORE_DSN", defaultSQLiteDSN),
		},
		Cache: CacheConfig{
			Backend: getEnvOrDefault("CACHE_BACKEND", CacheMemory),
			Prefix:  getEnvOrDefault("CACHE_KEY_PREFIX", defaultCachePrefix),
			Valkey: cache.ValkeyConfig{
				URL:        getEnvOrDefault("VALKEY_URL", ""),
				Password:   getEnvOrDefault("VALKEY_PASSWORD", ""),
				DB:         getEnvIntOrDefault("VALKEY_DB", 0),
				TLSEnabled: getEnvBoolOrDefault("VALKEY_TLS_ENABLED", false),
				TLSCAFile:  getEnvOrDefault("VALKEY_TLS_CA_FILE", ""),
			},
		},
		Google: GoogleConfig{
			Enabled:      getEnvBoolOrDefault("GOOGLE_CALENDAR_ENABLED", false),
			ClientID:     getEnvOrDefault("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnvOrDefault("GOOGLE_CLIENT_SECRET", ""),
			TokenDir:     getEnvOrDefault("GOOGLE_TOKEN_DIR", defaultTokenDir()),
			CalendarID:   getEnvOrDefault("GOOGLE_CALENDAR_ID", "primary"),
			Timeout:      getEnvDurationOrDefault("GOOGLE_API_TIMEOUT", defaultGoogleTimeout),
		},
		Meet: MeetConfig{
			Enabled: getEnvBoolOrDefault("MEET_LOOKUP_ENABLED", false),
		},
		Standalone: StandaloneConfig{
			Enabled: getEnvBoolOrDefault("STANDALONE_MEETING_ENABLED", false),
			StandaloneConfig: conferencing.StandaloneConfig{
				AccountID:    getEnvOrDefault("STANDALONE_MEETING_ACCOUNT_ID", ""),
				ClientID:     getEnvOrDefault("STANDALONE_MEETING_CLIENT_ID", ""),
				ClientSecret: getEnvOrDefault("STANDALONE_MEETING_CLIENT_SECRET", ""),
				APIURL:       getEnvOrDefault("STANDALONE_MEETING_API_URL", conferencing.DefaultAPIURL),
				TokenURL:     getEnvOrDefault("STANDALONE_MEETING_TOKEN_URL", conferencing.DefaultTokenURL),
				PlatformName: getEnvOrDefault("STANDALONE_MEETING_PLATFORM_NAME", ""),
				RateLimit:    getEnvFloatOrDefault("STANDALONE_MEETING_RATE_LIMIT", conferencing.DefaultRateLimit),
				RateBurst:    getEnvIntOrDefault("STANDALONE_MEETING_RATE_BURST", 0),
				Timeout:      getEnvDurationOrDefault("STANDALONE_MEETING_TIMEOUT", 0),
			},
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloatOrDefault("RATE_LIMIT_RPS", defaultRateLimitRPS),
			Burst: getEnvIntOrDefault("RATE_LIMIT_BURST", defaultRateBurst),
		},
		MCP: MCPConfig{
			Enabled:          getEnvBoolOrDefault("MCP_ENABLED", true),
			Yolo:             getEnvBoolOrDefault("MCP_YOLO", false),
			DisableStreaming: getEnvBoolOrDefault("MCP_DISABLE_STREAMING", false),
			ToolGroups:       parseCommaSeparatedList(getEnvOrDefault("MCP_TOOL_GROUPS", ToolGroupCalendar+","+ToolGroupMeet)),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBoolOrDefault("METRICS_ENABLED", false),
			Addr:    getEnvOrDefault("METRICS_ADDR", server.DefaultMetricsAddr),
		},
	}
}

// Validate checks the configuration for values the server cannot start with.
// Standalone meeting credentials are not checked here: the provider
// reports them on every call instead.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("http address is required")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("http timeouts must be positive")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q, must be one of: text, json", c.Log.Format)
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store dsn is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid store driver %q, must be one of: memory, sqlite", c.Store.Driver)
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheValkey:
		if strings.TrimSpace(c.Cache.Valkey.URL) == "" {
			return fmt.Errorf("valkey url is required for the valkey cache backend")
		}
	default:
		return fmt.Errorf("invalid cache backend %q, must be one of: none, memory, valkey", c.Cache.Backend)
	}

	if c.Google.Enabled || c.Meet.Enabled {
		if err := c.Google.OAuth().Validate(); err != nil {
			return err
		}
		if strings.TrimSpace(c.Google.TokenDir) == "" {
			return fmt.Errorf("google token directory is required")
		}
	}
	if c.Meet.Enabled && !c.Google.Enabled {
		return fmt.Errorf("meet lookup requires the google calendar adapter")
	}

	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values cannot be negative")
	}

	for _, g := range c.MCP.ToolGroups {
		switch g {
		case ToolGroupCalendar, ToolGroupMeet:
		default:
			return fmt.Errorf("unknown tool group %q, must be one of: calendar, meet", g)
		}
	}

	if c.Metrics.Enabled && c.Metrics.Addr == c.HTTP.Addr {
		return fmt.Errorf("metrics address must differ from the http address")
	}
	return nil
}

func defaultTokenDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "tokens")
	}
	return filepath.Join(dir, "calsync", "tokens")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := cast.ToBoolE(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := cast.ToIntE(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := cast.ToFloat64E(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("90s") and bare seconds.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if seconds, err := cast.ToIntE(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if parsed, err := cast.ToDurationE(value); err == nil {
		return parsed
	}
	return defaultValue
}

// parseCommaSeparatedList splits s on commas, trimming whitespace and
// dropping empty entries.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
