// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"
)

// Credential environment variables, mirrored from the CLI.
const (
	envAppID     = "LARK2HTML_APP_ID"
	envAppSecret = "LARK2HTML_APP_SECRET"
)

// ForCredentials returns hints for a missing or rejected app credential.
// It suggests whichever of the two environment variables is unset.
func ForCredentials() string {
	var missing []string
	for _, name := range []string{envAppID, envAppSecret} {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return format("check the app id and secret in the Open Platform developer console")
	}
	return formatHints([]string{
		"set " + strings.Join(missing, " and "),
		"or app.id / app.secret in the config file",
	})
}

// ForPermissionDenied returns the hint for documents the app cannot read.
func ForPermissionDenied() string {
	return format("add the app to the document (Share > add app) and grant the docx:document:readonly scope")
}

// ForInvalidURL describes the accepted document URL shapes.
func ForInvalidURL() string {
	return format("expected https://<tenant>.feishu.cn/docx/<token> or .../wiki/<token> (larkoffice.com and larksuite.com also accepted)")
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents or slow networks, use --timeout flag")
}

// ForPagination returns the hint for documents with too many block pages.
func ForPagination() string {
	return format("the document has more blocks than the page limit allows; keep api.pageSize at 500")
}

// ForRedis returns hints for an unreachable token cache.
func ForRedis(addr string) string {
	hint := "check tokenCache.redisAddr or LARK2HTML_REDIS_ADDR"
	if addr != "" {
		hint = "check that redis is reachable at " + addr
	}
	return formatHints([]string{hint, "or set tokenCache.backend: memory"})
}

// ForConfigNotFound suggests --config and, when the search covered the
// user config directory, the file to create there.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(slashPath(p), "lark2html/") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound lists the built-in styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// slashPath normalizes Windows separators so one substring check serves
// both platforms.
func slashPath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
