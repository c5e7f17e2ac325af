package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort       string
	StorePath        string
	AdminToken       string
	CacheTTLMinutes  string
	LogLevel         string
	MinRequestDelay  string
	MaxRequestDelay  string
	AlertThreshold   string
	AlertCooldownMin string
	FetchTimeoutSec  string
}

// GetCacheTTL returns the search cache TTL from environment or default.
func (c *Config) GetCacheTTL() time.Duration {
	if c.CacheTTLMinutes == "" {
		return 30 * time.Minute
	}

	minutes, err := strconv.Atoi(c.CacheTTLMinutes)
	if err != nil || minutes <= 0 {
		logrus.Warnf("Invalid CACHE_TTL_MINUTES value: %s, using default 30 minutes", c.CacheTTLMinutes)
		return 30 * time.Minute
	}

	return time.Duration(minutes) * time.Minute
}

// GetRequestDelays returns the base pacing window for upstream requests.
func (c *Config) GetRequestDelays() (time.Duration, time.Duration) {
	min := parseSeconds(c.MinRequestDelay, 2*time.Second)
	max := parseSeconds(c.MaxRequestDelay, 5*time.Second)
	if max < min {
		max = min
	}
	return min, max
}

// GetAlertThreshold returns the price-drop fraction that triggers an alert.
func (c *Config) GetAlertThreshold() float64 {
	if c.AlertThreshold == "" {
		return 0.20
	}
	v, err := strconv.ParseFloat(c.AlertThreshold, 64)
	if err != nil || v <= 0 || v >= 1 {
		logrus.Warnf("Invalid ALERT_THRESHOLD value: %s, using default 0.20", c.AlertThreshold)
		return 0.20
	}
	return v
}

// GetAlertCooldown returns the minimum gap between alerts per property.
func (c *Config) GetAlertCooldown() time.Duration {
	if c.AlertCooldownMin == "" {
		return 120 * time.Minute
	}
	minutes, err := strconv.Atoi(c.AlertCooldownMin)
	if err != nil || minutes <= 0 {
		logrus.Warnf("Invalid ALERT_COOLDOWN_MINUTES value: %s, using default 120 minutes", c.AlertCooldownMin)
		return 120 * time.Minute
	}
	return time.Duration(minutes) * time.Minute
}

// GetFetchTimeout returns the per-strategy fetch timeout.
func (c *Config) GetFetchTimeout() time.Duration {
	return parseSeconds(c.FetchTimeoutSec, 30*time.Second)
}

func parseSeconds(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		StorePath:        getEnv("STORE_PATH", "deals.db"),
		AdminToken:       getEnv("ADMIN_TOKEN", ""),
		CacheTTLMinutes:  getEnv("CACHE_TTL_MINUTES", "30"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MinRequestDelay:  getEnv("MIN_REQUEST_DELAY_SECONDS", "2"),
		MaxRequestDelay:  getEnv("MAX_REQUEST_DELAY_SECONDS", "5"),
		AlertThreshold:   getEnv("ALERT_THRESHOLD", "0.20"),
		AlertCooldownMin: getEnv("ALERT_COOLDOWN_MINUTES", "120"),
		FetchTimeoutSec:  getEnv("FETCH_TIMEOUT_SECONDS", "30"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
