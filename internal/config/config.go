package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jalshrestha/Outfit/internal/scraper"
)

type Config struct {
	Server    ServerConfig
	Scraper   ScraperConfig
	Browser   BrowserConfig
	Cache     CacheConfig
	Scheduler SchedulerConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Gemini    GeminiConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type ScraperConfig struct {
	UserAgent        string
	HTTPTimeout      time.Duration
	PinterestTimeout time.Duration
	PinterestTarget  string
	SettleDelay      time.Duration
	ScrollCount      int
	ScrollDelay      time.Duration
	RateLimitMin     time.Duration
	RateLimitMax     time.Duration
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	ProxyServer    string
}

type CacheConfig struct {
	Path     string
	FreshFor time.Duration
}

type SchedulerConfig struct {
	Enabled    bool
	Interval   time.Duration
	RunOnStart bool
	MaxResults int
}

// RedisConfig is disabled when Addr is empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

// DatabaseConfig is disabled when URL is empty.
type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

// GeminiConfig is disabled when APIKey is empty.
type GeminiConfig struct {
	APIKey string
	Model  string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getIntOrDefault("PORT", 3001),
			Host:            getEnvOrDefault("HOST", ""),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 150*time.Second),
			RequestTimeout:  getDurationOrDefault("SERVER_REQUEST_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins: getStringSliceOrDefault("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost:3001",
				"http://localhost:3002",
			}),
		},
		Scraper: ScraperConfig{
			UserAgent:        getEnvOrDefault("SCRAPER_USER_AGENT", scraper.DefaultUserAgent),
			HTTPTimeout:      getDurationOrDefault("SCRAPER_HTTP_TIMEOUT", 15*time.Second),
			PinterestTimeout: getDurationOrDefault("PINTEREST_TIMEOUT", 90*time.Second),
			PinterestTarget:  getEnvOrDefault("PINTEREST_TARGET", scraper.DefaultPinterestTarget),
			SettleDelay:      getDurationOrDefault("PINTEREST_SETTLE_DELAY", 5*time.Second),
			ScrollCount:      getIntOrDefault("PINTEREST_SCROLL_COUNT", 3),
			ScrollDelay:      getDurationOrDefault("PINTEREST_SCROLL_DELAY", 2*time.Second),
			RateLimitMin:     getDurationOrDefault("SCRAPER_RATE_LIMIT_MIN", 2*time.Second),
			RateLimitMax:     getDurationOrDefault("SCRAPER_RATE_LIMIT_MAX", 5*time.Second),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-US"),
			ProxyServer:    getEnvOrDefault("BROWSER_PROXY", ""),
		},
		Cache: CacheConfig{
			Path:     getEnvOrDefault("CACHE_PATH", "data/trending.json"),
			FreshFor: getDurationOrDefault("CACHE_FRESH_FOR", 0),
		},
		Scheduler: SchedulerConfig{
			Enabled:    getBoolOrDefault("SCHEDULER_ENABLED", false),
			Interval:   getDurationOrDefault("SCHEDULER_INTERVAL", 12*time.Hour),
			RunOnStart: getBoolOrDefault("SCHEDULER_RUN_ON_START", false),
			MaxResults: getIntOrDefault("SCHEDULER_MAX_RESULTS", 20),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:trending_refresh"),
		},
		Database: DatabaseConfig{
			URL:      getEnvOrDefault("DATABASE_URL", ""),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 5)),
		},
		Gemini: GeminiConfig{
			APIKey: getEnvOrDefault("GEMINI_API_KEY", ""),
			Model:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if c.Scraper.RateLimitMin > c.Scraper.RateLimitMax {
		return fmt.Errorf("SCRAPER_RATE_LIMIT_MIN cannot be greater than SCRAPER_RATE_LIMIT_MAX")
	}

	if c.Scraper.PinterestTimeout <= 0 {
		return fmt.Errorf("PINTEREST_TIMEOUT must be positive")
	}

	if c.Scraper.ScrollCount < 0 {
		return fmt.Errorf("PINTEREST_SCROLL_COUNT cannot be negative")
	}

	if c.Cache.Path == "" {
		return fmt.Errorf("CACHE_PATH is required")
	}

	if c.Scheduler.Interval <= 0 || c.Scheduler.Interval > 24*time.Hour {
		return fmt.Errorf("SCHEDULER_INTERVAL must be between 0 and 24h")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text")
	}

	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) ScraperOptions() scraper.Options {
	return scraper.Options{
		UserAgent:        c.Scraper.UserAgent,
		HTTPTimeout:      c.Scraper.HTTPTimeout,
		PinterestTimeout: c.Scraper.PinterestTimeout,
		PinterestTarget:  c.Scraper.PinterestTarget,
		RateLimitMin:     c.Scraper.RateLimitMin,
		RateLimitMax:     c.Scraper.RateLimitMax,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}
