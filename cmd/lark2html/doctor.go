package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	lark2html "github.com/alnah/go-lark2html"
	"github.com/alnah/go-lark2html/internal/config"
)

// doctorCheckTimeout bounds each network check.
const doctorCheckTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status      string          `json:"status"` // "ready", "warnings", "errors"
	Config      configInfo      `json:"config"`
	Credentials credentialsInfo `json:"credentials"`
	TokenCache  tokenCacheInfo  `json:"token_cache"`
	Output      outputInfo      `json:"output"`
	Env         envInfo         `json:"environment"`
	Warnings    []string        `json:"warnings,omitempty"`
	Errors      []string        `json:"errors,omitempty"`

	effective []byte // masked YAML, printed with --verbose
}

// configInfo describes the resolved configuration.
type configInfo struct {
	Source  string `json:"source"` // file path or "defaults"
	Valid   bool   `json:"valid"`
	BaseURL string `json:"base_url"`
}

// credentialsInfo holds the credential check results.
type credentialsInfo struct {
	AppIDSet     bool `json:"app_id_set"`
	AppSecretSet bool `json:"app_secret_set"`
	TokenIssued  bool `json:"token_issued"`
}

// tokenCacheInfo holds the token cache check results.
type tokenCacheInfo struct {
	Backend   string `json:"backend"`
	Addr      string `json:"addr,omitempty"`
	Reachable bool   `json:"reachable"`
}

// outputInfo holds the output directory check results.
type outputInfo struct {
	Dir      string `json:"dir"`
	Writable bool   `json:"writable"`
}

// envInfo holds platform detection results.
type envInfo struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
	Go   string `json:"go"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	var (
		common     commonFlags
		jsonOutput bool
	)
	addCommonFlags(fs, &common)
	fs.BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := parse(fs, args); err != nil {
		if errors.Is(err, errHelpShown) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	result := runDoctor(ctx, common, env)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, common commonFlags, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
			Go:   runtime.Version(),
		},
	}

	// Typos are reported as warnings rather than printed
	var typos strings.Builder
	warnUnknownEnvVars(&typos)
	for _, line := range strings.Split(strings.TrimSpace(typos.String()), "\n") {
		if line != "" {
			result.Warnings = append(result.Warnings, strings.TrimPrefix(line, "warning: "))
		}
	}

	common.quiet = true
	cfg, ok := checkConfig(result, common, env)
	if ok {
		if common.verbose {
			result.effective, _ = cfg.Marshal(false)
		}
		checkCredentials(ctx, result, cfg, env)
		checkOutputDir(result, cfg)
	}

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

// checkConfig loads and validates the configuration.
func checkConfig(result *doctorResult, common commonFlags, env *Environment) (*config.Config, bool) {
	result.Config.Source = "defaults"
	if common.config != "" {
		result.Config.Source = common.config
	} else if p := os.Getenv("LARK2HTML_CONFIG"); p != "" {
		result.Config.Source = p
	}

	cfg, _, err := loadCLIConfig(common, env)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return nil, false
	}
	result.Config.BaseURL = cfg.API.BaseURL
	result.TokenCache.Backend = strings.ToLower(cfg.TokenCache.Backend)
	if err := cfg.Validate(); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return nil, false
	}
	result.Config.Valid = true
	return cfg, true
}

// checkCredentials opens the token cache and issues a tenant token.
func checkCredentials(ctx context.Context, result *doctorResult, cfg *config.Config, env *Environment) {
	result.Credentials.AppIDSet = strings.TrimSpace(cfg.App.ID) != ""
	result.Credentials.AppSecretSet = strings.TrimSpace(cfg.App.Secret) != ""
	if !result.Credentials.AppIDSet || !result.Credentials.AppSecretSet {
		result.Errors = append(result.Errors,
			"app credentials missing. Set LARK2HTML_APP_ID and LARK2HTML_APP_SECRET or app.id / app.secret")
		return
	}

	if result.TokenCache.Backend == "redis" {
		result.TokenCache.Addr = cfg.TokenCache.RedisAddr
	}

	ctx, cancel := context.WithTimeout(ctx, doctorCheckTimeout)
	defer cancel()

	ext, cleanup, err := newExtractor(ctx, cfg, env, zap.NewNop())
	if err != nil {
		if errors.Is(err, ErrTokenCache) {
			result.Errors = append(result.Errors, fmt.Sprintf("redis not reachable at %s: %v", cfg.TokenCache.RedisAddr, err))
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
		return
	}
	defer cleanup()
	result.TokenCache.Reachable = true

	if err := ext.CheckCredentials(ctx); err != nil {
		var apiErr *lark2html.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.Code != 0:
			result.Errors = append(result.Errors, fmt.Sprintf("credentials rejected: %s", apiErr.Message))
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("token request failed: %v", err))
		}
		return
	}
	result.Credentials.TokenIssued = true
}

// checkOutputDir verifies the output directory accepts new files.
func checkOutputDir(result *doctorResult, cfg *config.Config) {
	dir := cfg.Output.Dir
	if dir == "" {
		dir = "."
	}
	result.Output.Dir = dir

	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("output directory %s does not exist yet (created on first extract)", dir))
		return
	}
	if err != nil || !info.IsDir() {
		result.Errors = append(result.Errors, fmt.Sprintf("output directory %s is not a directory", dir))
		return
	}

	f, err := os.CreateTemp(dir, ".lark2html-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("output directory not writable: %s", dir))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	result.Output.Writable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "lark2html doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Configuration")
	if r.Config.Valid {
		fmt.Fprintf(w, "  [OK] Source: %s\n", r.Config.Source)
		fmt.Fprintf(w, "  [OK] API: %s\n", r.Config.BaseURL)
	} else {
		fmt.Fprintf(w, "  [ERROR] Source: %s (invalid)\n", r.Config.Source)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Credentials")
	switch {
	case r.Credentials.TokenIssued:
		fmt.Fprintln(w, "  [OK] Tenant token issued")
	case r.Credentials.AppIDSet && r.Credentials.AppSecretSet:
		fmt.Fprintln(w, "  [ERROR] Tenant token not issued")
	default:
		fmt.Fprintln(w, "  [ERROR] App id or secret missing")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Token cache")
	switch {
	case r.TokenCache.Backend != "redis":
		fmt.Fprintln(w, "  [OK] Backend: memory")
	case r.TokenCache.Reachable:
		fmt.Fprintf(w, "  [OK] Backend: redis at %s\n", r.TokenCache.Addr)
	default:
		fmt.Fprintf(w, "  [ERROR] Backend: redis at %s (unreachable)\n", r.TokenCache.Addr)
	}
	fmt.Fprintln(w)

	if len(r.effective) > 0 {
		fmt.Fprintln(w, "Effective configuration")
		for _, line := range strings.Split(strings.TrimRight(string(r.effective), "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "System")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s (%s)\n", r.Env.OS, r.Env.Arch, r.Env.Go)
	if r.Output.Writable {
		fmt.Fprintf(w, "  [OK] Output directory: %s writable\n", r.Output.Dir)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to extract")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
