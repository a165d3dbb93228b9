package render

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// escapeHTML escapes the five HTML-significant characters.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// normalizeText collapses whitespace runs to single spaces and trims.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	wwwPrefix     = regexp.MustCompile(`(?i)^www\.`)
	allowedScheme = regexp.MustCompile(`(?i)^(https?:|mailto:)`)
)

// decodeURL percent-decodes a link target and checks it against the scheme
// allow-list. Bare www. hosts are promoted to https. Anything that fails to
// decode or uses another scheme yields "".
func decodeURL(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	decoded, err := url.PathUnescape(text)
	if err != nil || !utf8.ValidString(decoded) {
		return ""
	}
	if wwwPrefix.MatchString(decoded) {
		decoded = "https://" + decoded
	}
	if !allowedScheme.MatchString(decoded) {
		return ""
	}
	return decoded
}

var alignValues = map[int]string{
	1: "left",
	2: "center",
	3: "right",
	4: "justify",
}

// alignAttr renders an align code as a style attribute, or "" for unknown codes.
func alignAttr(code int) string {
	v, ok := alignValues[code]
	if !ok {
		return ""
	}
	return ` style="text-align:` + v + `;"`
}

func anchor(href, inner string) string {
	return `<a href="` + escapeHTML(href) + `" target="_blank" rel="noopener noreferrer">` + inner + `</a>`
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
