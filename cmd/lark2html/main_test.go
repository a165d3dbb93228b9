package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	lark2html "github.com/alnah/go-lark2html"
	"github.com/alnah/go-lark2html/internal/config"
)

func newBufferEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := DefaultEnv()
	env.Stdout = &stdout
	env.Stderr = &stderr
	return env, &stdout, &stderr
}

// ---------------------------------------------------------------------------
// TestRunMain - Command dispatch
// ---------------------------------------------------------------------------

func TestRunMain_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"lark2html"}, ExitUsage, "", "Usage: lark2html <command>"},
		{"unknown command", []string{"lark2html", "convert"}, ExitUsage, "", `unknown command "convert"`},
		{"version", []string{"lark2html", "version"}, ExitSuccess, "lark2html dev", ""},
		{"help", []string{"lark2html", "help"}, ExitSuccess, "Commands:", ""},
		{"help extract", []string{"lark2html", "help", "extract"}, ExitSuccess, "Usage: lark2html extract", ""},
		{"help serve", []string{"lark2html", "help", "serve"}, ExitSuccess, "POST /v1/extract", ""},
		{"help unknown", []string{"lark2html", "help", "nope"}, ExitUsage, "", `unknown command "nope"`},
		{"completion usage", []string{"lark2html", "completion"}, ExitSuccess, "Supported shells:", ""},
		{"completion bad shell", []string{"lark2html", "completion", "tcsh"}, ExitUsage, "", "unsupported shell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := newBufferEnv()
			if code := runMain(context.Background(), tt.args, env); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout missing %q:\n%s", tt.wantStdout, stdout.String())
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantStderr, stderr.String())
			}
		})
	}
}

func TestHasVerboseFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"lark2html", "extract", "-v", "u"}, true},
		{[]string{"lark2html", "extract", "--verbose"}, true},
		{[]string{"lark2html", "extract", "u"}, false},
		{[]string{"lark2html", "extract", "--", "-v"}, false},
	}

	for _, tt := range tests {
		if got := hasVerboseFlag(tt.args); got != tt.want {
			t.Errorf("hasVerboseFlag(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestErrorHint - Hint selection
// ---------------------------------------------------------------------------

func TestErrorHint(t *testing.T) {
	t.Parallel()

	redisCfg := config.DefaultConfig()
	redisCfg.TokenCache.RedisAddr = "cache:6379"

	tests := []struct {
		name string
		err  error
		cfg  *config.Config
		want string
	}{
		{"permission", fmt.Errorf("meta: %w", &lark2html.APIError{Code: 1770032}), nil, "Share > add app"},
		{"invalid url", lark2html.ErrInvalidURL, nil, "expected https://"},
		{"timeout", fmt.Errorf("x: %w", context.DeadlineExceeded), nil, "--timeout"},
		{"pagination", lark2html.ErrPaginationOverflow, nil, "api.pageSize"},
		{"redis", fmt.Errorf("%w: refused", ErrTokenCache), redisCfg, "cache:6379"},
		{"output dir", ErrCreateOutputDir, nil, "writable"},
		{"style", lark2html.ErrStyleNotFound, nil, "available: "},
		{"config", fmt.Errorf("%w: tried a.yaml, /home/u/.config/lark2html/a.yaml", config.ErrConfigNotFound), nil, "or create /home/u/.config/lark2html/a.yaml"},
		{"none", errors.New("boom"), nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := errorHint(tt.err, tt.cfg)
			if tt.want == "" {
				if got != "" {
					t.Errorf("errorHint() = %q, want none", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("errorHint() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
