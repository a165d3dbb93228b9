package hints

// Notes:
// - ForCredentials tests cannot use t.Parallel() because they call
//   t.Setenv, which modifies the process environment.

import (
	"strings"
	"testing"
)

func TestForCredentials_BothMissing(t *testing.T) {
	t.Setenv(envAppID, "")
	t.Setenv(envAppSecret, "")

	hint := ForCredentials()
	if !strings.HasPrefix(hint, "\n  hint: ") {
		t.Errorf("unexpected format: %q", hint)
	}
	if !strings.Contains(hint, "LARK2HTML_APP_ID and LARK2HTML_APP_SECRET") {
		t.Errorf("expected both variables, got %q", hint)
	}
	if !strings.Contains(hint, "app.id") {
		t.Errorf("expected config alternative, got %q", hint)
	}
}

func TestForCredentials_SecretMissing(t *testing.T) {
	t.Setenv(envAppID, "cli_x")
	t.Setenv(envAppSecret, " ")

	hint := ForCredentials()
	if strings.Contains(hint, envAppID) || !strings.Contains(hint, envAppSecret) {
		t.Errorf("expected only the secret variable, got %q", hint)
	}
}

func TestForCredentials_AllSet(t *testing.T) {
	t.Setenv(envAppID, "cli_x")
	t.Setenv(envAppSecret, "s")

	if hint := ForCredentials(); !strings.Contains(hint, "developer console") {
		t.Errorf("expected console hint, got %q", hint)
	}
}

func TestForConfigNotFound(t *testing.T) {
	tests := []struct {
		name     string
		paths    []string
		contains string
		excludes string
	}{
		{
			name:     "empty paths",
			contains: "--config",
			excludes: "create",
		},
		{
			name:     "unix user dir",
			paths:    []string{"./foo.yaml", "/home/u/.config/lark2html/foo.yaml"},
			contains: "create /home/u/.config/lark2html/foo.yaml",
		},
		{
			name:     "windows user dir",
			paths:    []string{`C:\Users\u\AppData\Roaming\lark2html\foo.yaml`},
			contains: `create C:\Users\u\AppData\Roaming\lark2html\foo.yaml`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := ForConfigNotFound(tt.paths)
			if !strings.Contains(hint, tt.contains) {
				t.Errorf("expected %q in %q", tt.contains, hint)
			}
			if tt.excludes != "" && strings.Contains(hint, tt.excludes) {
				t.Errorf("did not expect %q in %q", tt.excludes, hint)
			}
		})
	}
}

func TestForRedis(t *testing.T) {
	if hint := ForRedis("cache:6379"); !strings.Contains(hint, "cache:6379") || !strings.Contains(hint, "memory") {
		t.Errorf("ForRedis(addr) = %q", hint)
	}
	if hint := ForRedis(""); !strings.Contains(hint, "LARK2HTML_REDIS_ADDR") {
		t.Errorf("ForRedis(\"\") = %q", hint)
	}
}

func TestForStyleNotFound(t *testing.T) {
	if hint := ForStyleNotFound(nil); hint != "" {
		t.Errorf("expected empty hint, got %q", hint)
	}
	if hint := ForStyleNotFound([]string{"default", "minimal"}); !strings.Contains(hint, "default, minimal") {
		t.Errorf("ForStyleNotFound() = %q", hint)
	}
}

func TestFormat_Consistency(t *testing.T) {
	for _, h := range []string{
		ForPermissionDenied(),
		ForInvalidURL(),
		ForTimeout(),
		ForPagination(),
		ForOutputDirectory(),
		ForRedis(""),
	} {
		if !strings.HasPrefix(h, "\n  hint: ") {
			t.Errorf("hint format inconsistent: %q", h)
		}
	}
	if format("") != "" || formatHints(nil) != "" {
		t.Error("empty hints should format to empty strings")
	}
}
