package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	apperrors "sjsage522/portalevents/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Portal configuration
	BaseURL   string
	LoginURL  string
	EventsURL string
	EventPath string

	// Browser configuration
	Headless       bool
	ChromeWSURL    string
	SessionTimeout time.Duration

	// Login sequence timings
	StepTimeout     time.Duration
	LoginNavTimeout time.Duration
	ReadyTimeout    time.Duration

	// Pagination policy
	ScrollMaxIterations      int
	ScrollSettle             time.Duration
	ScrollStabilityThreshold int
	ScrollFinalSettle        time.Duration

	// Feed match rule
	FeedPathMarker string
	FeedGroupParam string
	FeedGroupValue string

	// Normalization
	Timezone      string
	SelectorsFile string

	// HTTP front end
	Port       int
	DefaultMax int
	StaticDir  string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr   string
	ResultCacheTTL time.Duration

	// Worker configuration
	ScrapeInterval time.Duration
	ScrapeSchedule string
	PortalEmail    string
	PortalPassword string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		BaseURL:   getEnv("BASE_URL", ""),
		LoginURL:  getEnv("LOGIN_URL", ""),
		EventsURL: getEnv("EVENTS_URL", ""),
		EventPath: getEnv("EVENT_PATH", "/events/"),

		Headless:       getEnvBool("HEADLESS", true),
		ChromeWSURL:    getEnv("CHROME_WS_URL", ""),
		SessionTimeout: getEnvDuration("SESSION_TIMEOUT_SECONDS", time.Second, 180),

		StepTimeout:     getEnvDuration("STEP_TIMEOUT_MS", time.Millisecond, 8000),
		LoginNavTimeout: getEnvDuration("LOGIN_NAV_TIMEOUT_MS", time.Millisecond, 15000),
		ReadyTimeout:    getEnvDuration("READY_TIMEOUT_MS", time.Millisecond, 8000),

		ScrollMaxIterations:      getEnvInt("SCROLL_MAX_ITERATIONS", 40),
		ScrollSettle:             getEnvDuration("SCROLL_SETTLE_MS", time.Millisecond, 1500),
		ScrollStabilityThreshold: getEnvInt("SCROLL_STABILITY_THRESHOLD", 3),
		ScrollFinalSettle:        getEnvDuration("SCROLL_FINAL_SETTLE_MS", time.Millisecond, 1500),

		FeedPathMarker: getEnv("FEED_PATH_MARKER", "/api/events"),
		FeedGroupParam: getEnv("FEED_GROUP_PARAM", "group"),
		FeedGroupValue: getEnv("FEED_GROUP_VALUE", "events"),

		Timezone:      getEnv("TIMEZONE", ""),
		SelectorsFile: getEnv("SELECTORS_FILE", ""),

		Port:       getEnvInt("PORT", 5174),
		DefaultMax: getEnvInt("DEFAULT_MAX_EVENTS", 50),
		StaticDir:  getEnv("STATIC_DIR", ""),

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "portal_events"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 100),

		MemcacheAddr:   getEnv("MEMCACHE_ADDR", ""),
		ResultCacheTTL: getEnvDuration("RESULT_CACHE_TTL_SECONDS", time.Second, 0),

		ScrapeInterval: getEnvDuration("SCRAPE_INTERVAL_SECONDS", time.Second, 3600),
		ScrapeSchedule: getEnv("SCRAPE_SCHEDULE", ""),
		PortalEmail:    getEnv("PORTAL_EMAIL", ""),
		PortalPassword: getEnv("PORTAL_PASSWORD", ""),

		Environment: getEnv("APP_ENVIRONMENT", "development"),
	}
}

// Validate checks the values every command needs
func (c *Config) Validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}
	if c.LoginURL == "" {
		missing = append(missing, "LOGIN_URL")
	}
	if c.EventsURL == "" {
		missing = append(missing, "EVENTS_URL")
	}
	if len(missing) > 0 {
		return apperrors.NewConfiguration("missing "+strings.Join(missing, ", "), nil)
	}

	if c.ScrollMaxIterations <= 0 {
		return apperrors.NewConfiguration("SCROLL_MAX_ITERATIONS must be positive", nil)
	}
	if c.ScrollStabilityThreshold <= 0 {
		return apperrors.NewConfiguration("SCROLL_STABILITY_THRESHOLD must be positive", nil)
	}
	if c.StepTimeout <= 0 || c.SessionTimeout <= 0 {
		return apperrors.NewConfiguration("timeouts must be positive", nil)
	}
	if c.RedisStreamCount <= 0 {
		return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be positive", nil)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return apperrors.NewConfiguration("invalid TIMEZONE", err)
		}
	}
	return nil
}

// Location returns the configured timezone, falling back to the process local zone
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ValidateWorker checks the values the scheduled worker additionally needs
func (c *Config) ValidateWorker() error {
	if c.PortalEmail == "" || c.PortalPassword == "" {
		return apperrors.NewConfiguration("PORTAL_EMAIL and PORTAL_PASSWORD are required", nil)
	}
	if c.RedisAddr == "" {
		return apperrors.NewConfiguration("REDIS_ADDR is required", nil)
	}
	if c.ScrapeSchedule != "" {
		if _, err := cron.ParseStandard(c.ScrapeSchedule); err != nil {
			return apperrors.NewConfiguration("invalid SCRAPE_SCHEDULE", err)
		}
		return nil
	}
	if c.ScrapeInterval <= 0 {
		return apperrors.NewConfiguration("SCRAPE_INTERVAL_SECONDS must be positive", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvBool treats anything but a case-insensitive "false" or "0" as true
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "false", "0":
		return false
	}
	return true
}

func getEnvDuration(key string, unit time.Duration, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * unit
}
