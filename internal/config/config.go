package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FetchStrategy selects how category pages are retrieved. The two strategies
// are mutually exclusive per deployment.
type FetchStrategy string

const (
	StrategyHTTP    FetchStrategy = "http"
	StrategyBrowser FetchStrategy = "browser"
)

type Config struct {
	Server   ServerConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Currency CurrencyConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	Regions         []string
	Strategy        FetchStrategy
	MaxProducts     int
	FetchTimeout    time.Duration
	ConcurrentLimit int
	RateLimitMin    time.Duration
	RateLimitMax    time.Duration
	UserAgent       string
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxConns int32
}

type RedisConfig struct {
	Addr    string
	Stream  string
	Enabled bool
}

type CurrencyConfig struct {
	RatesURL string
	Timeout  time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Scraper: ScraperConfig{
			Regions:         getStringSliceOrDefault("SCRAPER_REGIONS", []string{"tr", "us", "gb", "de", "se"}),
			Strategy:        FetchStrategy(getEnvOrDefault("SCRAPER_STRATEGY", string(StrategyBrowser))),
			MaxProducts:     getIntOrDefault("SCRAPER_MAX_PRODUCTS", 30),
			FetchTimeout:    getDurationOrDefault("SCRAPER_FETCH_TIMEOUT", 60*time.Second),
			ConcurrentLimit: getIntOrDefault("SCRAPER_CONCURRENT_LIMIT", 3),
			RateLimitMin:    getDurationOrDefault("SCRAPER_RATE_LIMIT_MIN", 2*time.Second),
			RateLimitMax:    getDurationOrDefault("SCRAPER_RATE_LIMIT_MAX", 8*time.Second),
			UserAgent: getEnvOrDefault("SCRAPER_USER_AGENT",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "price_tracker"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Addr:    getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Stream:  getEnvOrDefault("REDIS_STREAM", "stream:price_observations"),
			Enabled: getBoolOrDefault("REDIS_ENABLED", false),
		},
		Currency: CurrencyConfig{
			RatesURL: getEnvOrDefault("CURRENCY_RATES_URL", ""),
			Timeout:  getDurationOrDefault("CURRENCY_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate fails fast on misconfiguration. Misconfiguration is the only
// fatal error class in the pipeline and must surface before any network
// activity.
func (c *Config) Validate() error {
	if len(c.Scraper.Regions) == 0 {
		return fmt.Errorf("SCRAPER_REGIONS must name at least one region")
	}

	switch c.Scraper.Strategy {
	case StrategyHTTP, StrategyBrowser:
	default:
		return fmt.Errorf("SCRAPER_STRATEGY must be %q or %q, got %q",
			StrategyHTTP, StrategyBrowser, c.Scraper.Strategy)
	}

	if c.Scraper.ConcurrentLimit < 1 {
		return fmt.Errorf("SCRAPER_CONCURRENT_LIMIT must be at least 1")
	}

	if c.Scraper.RateLimitMin > c.Scraper.RateLimitMax {
		return fmt.Errorf("SCRAPER_RATE_LIMIT_MIN cannot be greater than SCRAPER_RATE_LIMIT_MAX")
	}

	if c.Scraper.MaxProducts < 1 {
		return fmt.Errorf("SCRAPER_MAX_PRODUCTS must be at least 1")
	}

	return nil
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
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
