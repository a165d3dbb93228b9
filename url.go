package lark2html

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	docHostPattern = regexp.MustCompile(`(?i)^([a-z0-9-]+\.)?(feishu\.cn|larkoffice\.com|larksuite\.com)$`)
	docPathPattern = regexp.MustCompile(`(?i)^/(docx|wiki)/([a-z0-9]+)`)
)

// ParseDocToken validates a document URL and returns its doc token.
//
// Accepted URLs use http or https, a host under feishu.cn, larkoffice.com
// or larksuite.com, and a path starting with /docx/<token> or
// /wiki/<token>. Anything else fails with ErrInvalidURL.
func ParseDocToken(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	if !docHostPattern.MatchString(u.Hostname()) {
		return "", fmt.Errorf("%w: unsupported host %q", ErrInvalidURL, u.Hostname())
	}

	match := docPathPattern.FindStringSubmatch(u.Path)
	if match == nil {
		return "", fmt.Errorf("%w: no document token in path %q", ErrInvalidURL, u.Path)
	}
	return match[2], nil
}

// IsDocURL reports whether rawURL is an accepted document URL.
func IsDocURL(rawURL string) bool {
	_, err := ParseDocToken(rawURL)
	return err == nil
}
