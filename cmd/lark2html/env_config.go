package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-lark2html/internal/config"
)

// envPrefix marks the variables this CLI reads.
const envPrefix = "LARK2HTML_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Credentials and API
	ConfigPath string        // LARK2HTML_CONFIG: config file name or path
	AppID      string        // LARK2HTML_APP_ID
	AppSecret  string        // LARK2HTML_APP_SECRET
	BaseURL    string        // LARK2HTML_BASE_URL: Open API base URL
	Timeout    time.Duration // LARK2HTML_TIMEOUT: per-document timeout

	// Output and runtime
	OutputDir string // LARK2HTML_OUTPUT_DIR
	Style     string // LARK2HTML_STYLE: style name, CSS path or inline CSS
	RedisAddr string // LARK2HTML_REDIS_ADDR: enables the redis token cache
	LogMode   string // LARK2HTML_LOG_MODE: dev or prod
	Workers   int    // LARK2HTML_WORKERS: parallel extractions
}

// knownEnvVars lists valid LARK2HTML_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"LARK2HTML_CONFIG":     true,
	"LARK2HTML_APP_ID":     true,
	"LARK2HTML_APP_SECRET": true,
	"LARK2HTML_BASE_URL":   true,
	"LARK2HTML_TIMEOUT":    true,
	"LARK2HTML_OUTPUT_DIR": true,
	"LARK2HTML_STYLE":      true,
	"LARK2HTML_REDIS_ADDR": true,
	"LARK2HTML_LOG_MODE":   true,
	"LARK2HTML_WORKERS":    true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable durations and counts are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("LARK2HTML_CONFIG"),
		AppID:      strings.TrimSpace(os.Getenv("LARK2HTML_APP_ID")),
		AppSecret:  strings.TrimSpace(os.Getenv("LARK2HTML_APP_SECRET")),
		BaseURL:    os.Getenv("LARK2HTML_BASE_URL"),
		OutputDir:  os.Getenv("LARK2HTML_OUTPUT_DIR"),
		Style:      os.Getenv("LARK2HTML_STYLE"),
		RedisAddr:  os.Getenv("LARK2HTML_REDIS_ADDR"),
		LogMode:    os.Getenv("LARK2HTML_LOG_MODE"),
	}

	if timeout := os.Getenv("LARK2HTML_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("LARK2HTML_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars prints a warning for each unrecognized LARK2HTML_*
// variable, e.g. LARK2HTML_APPID instead of LARK2HTML_APP_ID.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// A value is only taken when the config field is empty or still holds
// its default, which gives: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeRenderFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.AppID != "" && cfg.App.ID == "" {
		cfg.App.ID = env.AppID
	}
	if env.AppSecret != "" && cfg.App.Secret == "" {
		cfg.App.Secret = env.AppSecret
	}
	if env.BaseURL != "" && (cfg.API.BaseURL == "" || cfg.API.BaseURL == config.DefaultBaseURL) {
		cfg.API.BaseURL = env.BaseURL
	}
	if env.Timeout > 0 && cfg.TimeoutDuration() == config.DefaultTimeout {
		cfg.API.Timeout = env.Timeout.String()
	}

	if env.OutputDir != "" && cfg.Output.Dir == "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.Style != "" && (cfg.Output.Style == "" || cfg.Output.Style == config.DefaultStyle) {
		cfg.Output.Style = env.Style
	}

	// Redis address auto-enables the redis backend
	if env.RedisAddr != "" && cfg.TokenCache.RedisAddr == "" {
		cfg.TokenCache.RedisAddr = env.RedisAddr
		cfg.TokenCache.Backend = "redis"
	}

	if env.LogMode != "" && (cfg.Log.Mode == "" || cfg.Log.Mode == "dev") {
		cfg.Log.Mode = env.LogMode
	}
}
