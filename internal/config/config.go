package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the browser daemon.
type Config struct {
	// Engine selection
	Engine      string
	LoadLatency time.Duration
	NavTimeout  time.Duration

	// Remote Chrome engine; used when CDPURL is set or LaunchChromium is true
	CDPURL         string
	LaunchChromium bool
	CDPAddress     string
	CDPPort        int
	ProfileDir     string

	// Accounting and history
	HistorySize        int
	SessionHistorySize int
	StrictAccounting   bool

	// HTTP surface
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool
	SearchURL        string

	// Logging
	LogLevel string
	LogFile  string

	// Optional YAML file of tabs to open at startup
	StartupTabsPath string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		Engine:             strings.ToLower(getEnvOrDefault("BROWSER_ENGINE", "webkit")),
		LoadLatency:        getEnvMillisOrDefault("BROWSER_LOAD_LATENCY_MS", 100*time.Millisecond),
		NavTimeout:         getEnvMillisOrDefault("BROWSER_NAV_TIMEOUT_MS", 0),
		CDPURL:             getEnvOrDefault("BROWSER_CDP_URL", ""),
		LaunchChromium:     getEnvBoolOrDefault("BROWSER_CDP_LAUNCH", false),
		CDPAddress:         getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:            getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9220),
		ProfileDir:         getEnvOrDefault("BROWSER_PROFILE_DIR", "./browser_profile"),
		HistorySize:        getEnvIntOrDefault("BROWSER_HISTORY_SIZE", 100),
		SessionHistorySize: getEnvIntOrDefault("BROWSER_SESSION_HISTORY_SIZE", 1000),
		StrictAccounting:   getEnvBoolOrDefault("BROWSER_STRICT_ACCOUNTING", false),
		BindAddr:           getEnvOrDefault("BROWSER_BIND_ADDR", "127.0.0.1:8190"),
		PortCandidates:     getEnvListOrDefault("BROWSER_PORT_CANDIDATES", []string{"127.0.0.1:8191", "127.0.0.1:8192"}),
		PortAutoFallback:   getEnvBoolOrDefault("BROWSER_PORT_AUTO_FALLBACK", true),
		SearchURL:          getEnvOrDefault("BROWSER_SEARCH_URL", ""),
		LogLevel:           strings.ToLower(getEnvOrDefault("BROWSER_LOG_LEVEL", "info")),
		LogFile:            getEnvOrDefault("BROWSER_LOG_FILE", "logs/browserd.log"),
		StartupTabsPath:    getEnvOrDefault("BROWSER_STARTUP_TABS", "./config/startup_tabs.yaml"),
	}

	switch cfg.Engine {
	case "servo", "webkit":
	default:
		return nil, fmt.Errorf("BROWSER_ENGINE must be servo or webkit, got %q", cfg.Engine)
	}
	if cfg.HistorySize < 1 {
		cfg.HistorySize = 100
	}
	if cfg.SessionHistorySize < 1 {
		cfg.SessionHistorySize = 1000
	}
	return cfg, nil
}

// UseCDP reports whether a real Chrome should back the engine.
func (c *Config) UseCDP() bool {
	return c.CDPURL != "" || c.LaunchChromium
}

// ChromiumCDPURL returns the CDP endpoint of a locally launched Chromium.
func (c *Config) ChromiumCDPURL() string {
	return "http://" + c.CDPAddress + ":" + strconv.Itoa(c.CDPPort)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvMillisOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if ms, err := strconv.Atoi(val); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}

// getEnvListOrDefault splits a comma-separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
