package pipeline

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrDocumentRender is returned when the page template fails to execute.
var ErrDocumentRender = errors.New("document template rendering failed")

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// InjectCSS inserts a <style> block before </head>, else right after the
// opening <body> tag, else in front of the content.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" || ctx.Err() != nil {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"

	if idx := strings.Index(strings.ToLower(htmlContent), "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}
	if pos := afterBodyTag(htmlContent); pos != -1 {
		return htmlContent[:pos] + styleBlock + htmlContent[pos:]
	}
	return styleBlock + htmlContent
}

// sanitizeCSS escapes "</" so the stylesheet cannot close its <style>
// element early.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// afterBodyTag returns the offset just past the opening <body ...> tag,
// or -1.
func afterBodyTag(htmlContent string) int {
	idx := strings.Index(strings.ToLower(htmlContent), "<body")
	if idx == -1 {
		return -1
	}
	closeIdx := strings.Index(htmlContent[idx:], ">")
	if closeIdx == -1 {
		return -1
	}
	return idx + closeIdx + 1
}

// DocumentData is what the page template sees.
type DocumentData struct {
	Lang      string
	Title     string
	DocToken  string
	SourceURL string
	FetchedAt string
	Body      template.HTML
}

// DocumentWrapper renders a content fragment into a full HTML page.
type DocumentWrapper struct {
	tmpl *template.Template
}

// NewDocumentWrapper parses the page template.
func NewDocumentWrapper(tmplContent string) (*DocumentWrapper, error) {
	tmpl, err := template.New("document").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing document template: %w", err)
	}
	return &DocumentWrapper{tmpl: tmpl}, nil
}

// Wrap executes the template. Body is trusted: it is the renderer's own
// escaped output, optionally sanitized.
func (w *DocumentWrapper) Wrap(ctx context.Context, data DocumentData) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if data.Lang == "" {
		data.Lang = "zh-CN"
	}

	var buf strings.Builder
	if err := w.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDocumentRender, err)
	}
	return buf.String(), nil
}
