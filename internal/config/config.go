package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-lark2html/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxAppIDLength     = 64
	MaxSecretLength    = 128
	MaxURLLength       = 2048
	MaxAddrLength      = 255
	MaxPrefixLength    = 64
	MaxPathLength      = 4096
	MaxStyleNameLength = 50
	MaxDurationLength  = 20
)

// Defaults.
const (
	DefaultBaseURL       = "https://open.feishu.cn/open-apis"
	DefaultPageSize      = 500
	DefaultTimeout       = 30 * time.Second
	DefaultMaxMediaBytes = 20 << 20
	DefaultFormat        = "html"
	DefaultStyle         = "default"
	DefaultHighlight     = "github"
	DefaultServeAddr     = "127.0.0.1:8080"
	DefaultRedisPrefix   = "lark2html:token:"
)

// Config holds all configuration for extraction.
type Config struct {
	App        AppConfig        `yaml:"app"`
	API        APIConfig        `yaml:"api"`
	TokenCache TokenCacheConfig `yaml:"tokenCache"`
	Output     OutputConfig     `yaml:"output"`
	Render     RenderConfig     `yaml:"render"`
	Assets     AssetsConfig     `yaml:"assets"`
	Log        LogConfig        `yaml:"log"`
	Serve      ServeConfig      `yaml:"serve"`
}

// AppConfig holds the Open Platform app credentials.
type AppConfig struct {
	ID     string `yaml:"id"`
	Secret string `yaml:"secret"`
}

// APIConfig tunes the Open API client.
type APIConfig struct {
	BaseURL       string `yaml:"baseURL"`
	PageSize      int    `yaml:"pageSize"`      // 1..500, 0 = default
	Timeout       string `yaml:"timeout"`       // Go duration, e.g. "30s"
	MaxMediaBytes int64  `yaml:"maxMediaBytes"` // 0 = default
}

// TokenCacheConfig selects where tenant tokens are cached.
type TokenCacheConfig struct {
	Backend     string `yaml:"backend"` // "memory" (default) or "redis"
	RedisAddr   string `yaml:"redisAddr"`
	RedisPrefix string `yaml:"redisPrefix"`
}

// OutputConfig defines where and how results are written.
type OutputConfig struct {
	Dir          string `yaml:"dir"`    // empty = current directory
	Format       string `yaml:"format"` // "html", "json" or "text"
	Standalone   bool   `yaml:"standalone"`
	Style        string `yaml:"style"` // style name, CSS file path, or inline CSS
	InlineImages bool   `yaml:"inlineImages"`
	Sanitize     bool   `yaml:"sanitize"`
}

// RenderConfig defines renderer options.
type RenderConfig struct {
	HighlightCode  bool   `yaml:"highlightCode"`
	HighlightStyle string `yaml:"highlightStyle"`
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded assets only
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Mode string `yaml:"mode"` // "dev" (default) or "prod"
}

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// Validate checks field lengths and enumerations. Called by LoadConfig,
// and again by the CLI after environment overrides are applied.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"app.id", c.App.ID, MaxAppIDLength},
		{"app.secret", c.App.Secret, MaxSecretLength},
		{"api.baseURL", c.API.BaseURL, MaxURLLength},
		{"api.timeout", c.API.Timeout, MaxDurationLength},
		{"tokenCache.redisAddr", c.TokenCache.RedisAddr, MaxAddrLength},
		{"tokenCache.redisPrefix", c.TokenCache.RedisPrefix, MaxPrefixLength},
		{"output.dir", c.Output.Dir, MaxPathLength},
		{"render.highlightStyle", c.Render.HighlightStyle, MaxStyleNameLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"serve.addr", c.Serve.Addr, MaxAddrLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	if c.API.BaseURL != "" {
		lower := strings.ToLower(c.API.BaseURL)
		if !strings.HasPrefix(lower, "https://") && !strings.HasPrefix(lower, "http://") {
			return fmt.Errorf("%w: api.baseURL must be an http(s) URL, got %q", ErrInvalidValue, c.API.BaseURL)
		}
	}
	if c.API.PageSize < 0 || c.API.PageSize > DefaultPageSize {
		return fmt.Errorf("%w: api.pageSize must be between 1 and %d, got %d", ErrInvalidValue, DefaultPageSize, c.API.PageSize)
	}
	if c.API.Timeout != "" {
		d, err := time.ParseDuration(c.API.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: api.timeout must be a positive duration, got %q", ErrInvalidValue, c.API.Timeout)
		}
	}
	if c.API.MaxMediaBytes < 0 {
		return fmt.Errorf("%w: api.maxMediaBytes cannot be negative", ErrInvalidValue)
	}

	switch strings.ToLower(c.TokenCache.Backend) {
	case "", "memory":
	case "redis":
		if strings.TrimSpace(c.TokenCache.RedisAddr) == "" {
			return fmt.Errorf("%w: tokenCache.redisAddr is required when backend is redis", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: tokenCache.backend must be memory or redis, got %q", ErrInvalidValue, c.TokenCache.Backend)
	}

	switch strings.ToLower(c.Output.Format) {
	case "", "html", "json", "text":
	default:
		return fmt.Errorf("%w: output.format must be html, json or text, got %q", ErrInvalidValue, c.Output.Format)
	}

	switch strings.ToLower(c.Log.Mode) {
	case "", "dev", "development", "prod", "production":
	default:
		return fmt.Errorf("%w: log.mode must be dev or prod, got %q", ErrInvalidValue, c.Log.Mode)
	}

	return nil
}

// TimeoutDuration returns api.timeout parsed, or DefaultTimeout.
func (c *Config) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.API.Timeout); err == nil && d > 0 {
		return d
	}
	return DefaultTimeout
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:       DefaultBaseURL,
			PageSize:      DefaultPageSize,
			Timeout:       DefaultTimeout.String(),
			MaxMediaBytes: DefaultMaxMediaBytes,
		},
		TokenCache: TokenCacheConfig{Backend: "memory", RedisPrefix: DefaultRedisPrefix},
		Output:     OutputConfig{Format: DefaultFormat, Standalone: true, Style: DefaultStyle},
		Render:     RenderConfig{HighlightStyle: DefaultHighlight},
		Log:        LogConfig{Mode: "dev"},
		Serve:      ServeConfig{Addr: DefaultServeAddr},
	}
}

// LoadConfig loads configuration from a file path or config name. A
// value containing a path separator is a path; anything else is a name
// searched in the current directory and then the user config directory.
// Fields absent from the file keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := unmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath tries ./<name>.yaml, ./<name>.yml, then the same two
// names under <user config dir>/lark2html/.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "lark2html", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
