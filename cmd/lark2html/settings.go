package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	lark2html "github.com/alnah/go-lark2html"
	"github.com/alnah/go-lark2html/internal/config"
	"github.com/alnah/go-lark2html/internal/logger"
)

// loadCLIConfig resolves the configuration shared by every command: the
// file named by --config (or LARK2HTML_CONFIG), then environment values.
// Flags are merged by the caller, which validates the result.
func loadCLIConfig(common commonFlags, env *Environment) (*config.Config, *envConfig, error) {
	if !common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}
	envCfg := loadEnvConfig()

	cfg := config.DefaultConfig()
	path := common.config
	if path == "" {
		path = envCfg.ConfigPath
	}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	env.Config = cfg
	return cfg, envCfg, nil
}

// mergeRenderFlags merges render, asset and timeout flags into config.
// CLI values override config values.
func mergeRenderFlags(r renderFlags, a assetFlags, timeout string, cfg *config.Config) {
	if r.noStandalone {
		cfg.Output.Standalone = false
	}
	if r.inlineImages {
		cfg.Output.InlineImages = true
	}
	if r.sanitize {
		cfg.Output.Sanitize = true
	}
	if r.highlight {
		cfg.Render.HighlightCode = true
	}
	// An explicit style implies highlighting
	if r.highlightStyle != "" {
		cfg.Render.HighlightCode = true
		cfg.Render.HighlightStyle = r.highlightStyle
	}
	if a.style != "" {
		cfg.Output.Style = a.style
	}
	if a.assetPath != "" {
		cfg.Assets.BasePath = a.assetPath
	}
	if timeout != "" {
		cfg.API.Timeout = timeout
	}
}

// buildLogger returns the zap logger for cfg. Commands that only print
// human output pass enabled=false and get a no-op logger.
func buildLogger(cfg *config.Config, enabled bool) (*zap.Logger, error) {
	if !enabled {
		return zap.NewNop(), nil
	}
	l, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return l.SugaredLogger.Desugar(), nil
}

// newExtractor builds an Extractor from a validated config. The returned
// cleanup releases the redis connection, if one was opened.
func newExtractor(ctx context.Context, cfg *config.Config, env *Environment, log *zap.Logger) (*lark2html.Extractor, func(), error) {
	opts := []lark2html.Option{
		lark2html.WithBaseURL(cfg.API.BaseURL),
		lark2html.WithTimeout(cfg.TimeoutDuration()),
		lark2html.WithSanitize(cfg.Output.Sanitize),
		lark2html.WithAssetPath(cfg.Assets.BasePath),
		lark2html.WithLogger(log),
	}
	if cfg.Output.Style != "" {
		opts = append(opts, lark2html.WithStyle(cfg.Output.Style))
	}
	if cfg.API.PageSize > 0 {
		opts = append(opts, lark2html.WithPageSize(cfg.API.PageSize))
	}
	if cfg.API.MaxMediaBytes > 0 {
		opts = append(opts, lark2html.WithMaxMediaBytes(cfg.API.MaxMediaBytes))
	}
	if cfg.Render.HighlightCode {
		opts = append(opts, lark2html.WithCodeHighlight(cfg.Render.HighlightStyle))
	}
	if env.HTTPClient != nil {
		opts = append(opts, lark2html.WithHTTPClient(env.HTTPClient))
	}
	if env.Now != nil {
		opts = append(opts, lark2html.WithClock(env.Now))
	}

	cleanup := func() {}
	if strings.EqualFold(cfg.TokenCache.Backend, "redis") {
		rdb, err := lark2html.DialRedis(ctx, cfg.TokenCache.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrTokenCache, err)
		}
		store := lark2html.NewRedisStore(rdb, cfg.TokenCache.RedisPrefix)
		opts = append(opts, lark2html.WithTokenStore(store))
		cleanup = func() { _ = store.Close() }
	}

	ext, err := lark2html.NewExtractor(cfg.App.ID, cfg.App.Secret, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return ext, cleanup, nil
}

// searchedConfigPaths recovers the candidate paths listed in a
// config-not-found error ("...: tried a, b, c").
func searchedConfigPaths(err error) []string {
	msg := err.Error()
	idx := strings.LastIndex(msg, "tried ")
	if idx < 0 {
		return nil
	}
	return strings.Split(msg[idx+len("tried "):], ", ")
}
