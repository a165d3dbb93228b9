package lark2html

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/alnah/go-lark2html/internal/assets"
	"github.com/alnah/go-lark2html/internal/fileutil"
	"github.com/alnah/go-lark2html/internal/pipeline"
)

// Standalone wraps the content HTML in a complete HTML page with the
// configured stylesheet (and the highlighting stylesheet when code
// highlighting is enabled).
func (e *Extractor) Standalone(ctx context.Context, doc *ExtractedDocument) (string, error) {
	if doc == nil {
		return "", ErrNilDocument
	}

	data := pipeline.DocumentData{
		Title:     doc.Title,
		DocToken:  doc.DocToken,
		SourceURL: doc.SourceURL,
		Body:      template.HTML(doc.ContentHTML), // #nosec G203 -- renderer output is escaped
	}
	if !doc.FetchedAt.IsZero() {
		data.FetchedAt = doc.FetchedAt.UTC().Format(time.RFC3339)
	}

	page, err := e.wrapper.Wrap(ctx, data)
	if err != nil {
		return "", err
	}

	css, err := e.stylesheet()
	if err != nil {
		return "", err
	}
	page = e.cssInjector.InjectCSS(ctx, page, css)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return page, nil
}

// stylesheet combines the resolved style with the highlighter classes.
func (e *Extractor) stylesheet() (string, error) {
	if e.highlighter == nil {
		return e.style, nil
	}
	var b strings.Builder
	b.WriteString(e.style)
	b.WriteString("\n")
	if err := e.highlighter.CSS(&b); err != nil {
		return "", fmt.Errorf("writing highlight stylesheet: %w", err)
	}
	return b.String(), nil
}

// resolveStyle resolves the style input (name, path, or CSS content) to CSS content.
// Called during NewExtractor after options are applied and the asset loader is configured.
func (e *Extractor) resolveStyle() error {
	input := e.cfg.styleInput
	if input == "" {
		input = assets.DefaultStyleName
	}

	// CSS content? (contains {). Runs before the path check since inline
	// CSS may contain slashes.
	if strings.Contains(input, "{") {
		e.style = input
		return nil
	}

	// File path? (contains / or \)
	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("loading style file %q: %w", input, err)
		}
		e.style = string(content)
		return nil
	}

	css, err := e.assetLoader.LoadStyle(input)
	if err != nil {
		return fmt.Errorf("loading style %q: %w", input, err)
	}
	e.style = css
	return nil
}
