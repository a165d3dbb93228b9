package lark2html

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-lark2html/internal/assets"
	"github.com/alnah/go-lark2html/internal/blocks"
	"github.com/alnah/go-lark2html/internal/feishu"
	"github.com/alnah/go-lark2html/internal/logger"
	"github.com/alnah/go-lark2html/internal/pipeline"
	"github.com/alnah/go-lark2html/internal/render"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.CSSInjector = (*pipeline.CSSInjection)(nil)
	_ render.Highlighter   = (*render.ChromaHighlighter)(nil)
	_ feishu.TokenStore    = (*feishu.MemoryStore)(nil)
	_ feishu.TokenStore    = (*feishu.RedisStore)(nil)
)

// Warning messages attached to an ExtractedDocument.
const (
	WarnNoImage         = "no image found; the document has no cover candidate"
	WarnNoParagraphs    = "paragraph count is 0; check that the app can read the document"
	warnUnsupportedType = "block types not fully supported: "
)

// Extractor fetches documents through the Open API and renders them.
// An Extractor is safe for concurrent use; its only shared state is the
// token cache.
type Extractor struct {
	cfg         extractorConfig
	client      *feishu.Client
	renderer    *render.Renderer
	highlighter *render.ChromaHighlighter
	sanitizer   *pipeline.Sanitizer
	assetLoader assets.Loader
	cssInjector pipeline.CSSInjector
	wrapper     *pipeline.DocumentWrapper
	style       string
	log         *logger.Logger
	now         func() time.Time
}

// NewExtractor creates an Extractor for the given app credentials.
// Returns ErrAuthCredential when either value is empty, and an error when
// the configured style or asset path cannot be loaded.
func NewExtractor(appID, appSecret string, opts ...Option) (*Extractor, error) {
	e := &Extractor{
		cfg: extractorConfig{
			timeout:      DefaultTimeout,
			imageWorkers: DefaultImageWorkers,
		},
		assetLoader: assets.NewEmbeddedLoader(),
		cssInjector: &pipeline.CSSInjection{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.now == nil {
		e.now = time.Now
	}

	e.log = logger.FromZap(e.cfg.logger)
	clientOpts := append([]feishu.Option{feishu.WithLogger(e.log)}, e.cfg.clientOpts...)
	client, err := feishu.NewClient(appID, appSecret, clientOpts...)
	if err != nil {
		return nil, err
	}
	e.client = client

	var renderOpts []render.Option
	if e.cfg.highlight {
		e.highlighter = render.NewChromaHighlighter(e.cfg.highlightStyle)
		renderOpts = append(renderOpts, render.WithHighlighter(e.highlighter))
	}
	e.renderer = render.New(renderOpts...)

	if e.cfg.sanitize {
		e.sanitizer = pipeline.NewSanitizer()
	}

	if e.cfg.assetPath != "" {
		overlay, err := assets.NewOverlay(e.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		e.assetLoader = overlay
	}

	if err := e.resolveStyle(); err != nil {
		return nil, err
	}

	tmpl, err := e.assetLoader.LoadTemplate(assets.DocumentTemplate)
	if err != nil {
		return nil, fmt.Errorf("loading document template: %w", err)
	}
	if e.wrapper, err = pipeline.NewDocumentWrapper(tmpl); err != nil {
		return nil, fmt.Errorf("initializing document wrapper: %w", err)
	}

	return e, nil
}

type requestIDKey struct{}

// ContextWithRequestID attaches a request id that Extract logs instead of
// generating its own.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Extract fetches the document behind rawURL and renders it. Metadata and
// the block list are fetched concurrently; any failure aborts the whole
// extraction. Recovers from internal panics to prevent crashes from
// propagating to callers.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (doc *ExtractedDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	docToken, err := ParseDocToken(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	log := e.log.With("request_id", requestID(ctx), "document", docToken)
	start := e.now()

	var (
		meta  feishu.Document
		items []json.RawMessage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if meta, err = e.client.GetDocument(gctx, docToken); err != nil {
			return fmt.Errorf("fetching document metadata: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if items, err = e.client.ListAllBlocks(gctx, docToken); err != nil {
			return fmt.Errorf("fetching document blocks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Warn("extraction failed", "error", err)
		return nil, err
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBlockList, docToken)
	}

	nodes, err := blocks.DecodeAll(items)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	m := blocks.NewMap(nodes)

	res := e.renderer.Render(m.RootChildren(docToken), m)
	if res.HTML == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRender, docToken)
	}

	contentHTML := res.HTML
	if e.sanitizer != nil {
		contentHTML = e.sanitizer.Sanitize(contentHTML)
	}

	doc = e.assemble(rawURL, docToken, meta, len(items), contentHTML, res)
	log.Info("extraction done",
		"blocks", doc.BlockCount,
		"paragraphs", doc.ParagraphCount,
		"images", doc.ImageCount,
		"warnings", len(doc.Warnings),
		"duration", e.now().Sub(start),
	)
	return doc, nil
}

// assemble builds the public result from a render.
func (e *Extractor) assemble(rawURL, docToken string, meta feishu.Document, blockCount int, contentHTML string, res render.Result) *ExtractedDocument {
	textPlain := res.PlainText()

	images := make([]Image, len(res.Images))
	for i, img := range res.Images {
		images[i] = Image{
			Index:   img.Index,
			Token:   img.Token,
			BlockID: img.BlockID,
			Alt:     img.Alt,
			Caption: img.Caption,
			Width:   img.Width,
			Height:  img.Height,
		}
	}

	doc := &ExtractedDocument{
		Title:            documentTitle(meta.Title),
		DocToken:         docToken,
		SourceURL:        strings.TrimSpace(rawURL),
		ContentHTML:      contentHTML,
		TextPlain:        textPlain,
		WordCount:        countWords(textPlain),
		ParagraphCount:   res.ParagraphCount,
		ImageCount:       len(images),
		Images:           images,
		UnsupportedTypes: res.UnsupportedTypes(),
		BlockCount:       blockCount,
		FetchedAt:        e.now().UTC(),
	}
	if len(images) > 0 {
		doc.CoverToken = images[0].Token
	}
	doc.Warnings = buildWarnings(doc)
	return doc
}

// documentTitle collapses whitespace in the metadata title and falls back
// to DefaultTitle.
func documentTitle(title string) string {
	if t := strings.Join(strings.Fields(title), " "); t != "" {
		return t
	}
	return DefaultTitle
}

// countWords counts non-whitespace runes, so CJK text counts per character.
func countWords(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func buildWarnings(doc *ExtractedDocument) []string {
	warnings := []string{}
	if doc.CoverToken == "" {
		warnings = append(warnings, WarnNoImage)
	}
	if doc.ParagraphCount < 1 {
		warnings = append(warnings, WarnNoParagraphs)
	}
	if len(doc.UnsupportedTypes) > 0 {
		types := make([]string, len(doc.UnsupportedTypes))
		for i, t := range doc.UnsupportedTypes {
			types[i] = strconv.Itoa(t)
		}
		warnings = append(warnings, warnUnsupportedType+strings.Join(types, ", "))
	}
	return warnings
}

// DownloadMedia fetches one media object (an image or file token) and
// returns it as a data URL.
func (e *Extractor) DownloadMedia(ctx context.Context, mediaToken string) (Media, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()
	return e.client.DownloadMedia(ctx, mediaToken)
}

// CheckCredentials issues (or reuses) a tenant access token, confirming
// that the app credentials are accepted.
func (e *Extractor) CheckCredentials(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()
	_, err := e.client.TenantToken(ctx)
	return err
}
