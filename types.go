package lark2html

import (
	"context"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alnah/go-lark2html/internal/feishu"
)

// DefaultTitle is used when the document metadata carries no title.
const DefaultTitle = "Untitled document"

// Default values for extractor options.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultImageWorkers = 4
)

// ExtractedDocument is the result of one extraction.
//
// Invariants: WordCount is the number of non-whitespace runes in TextPlain,
// ImageCount equals len(Images), and Images follow the order in which the
// images appear in ContentHTML.
type ExtractedDocument struct {
	Title            string    `json:"title"`
	DocToken         string    `json:"doc_token"`
	SourceURL        string    `json:"source_url"`
	CoverToken       string    `json:"cover_token"`
	ContentHTML      string    `json:"content_html"`
	TextPlain        string    `json:"text_plain"`
	WordCount        int       `json:"word_count"`
	ParagraphCount   int       `json:"paragraph_count"`
	ImageCount       int       `json:"image_count"`
	Images           []Image   `json:"images"`
	Warnings         []string  `json:"warnings"`
	UnsupportedTypes []int     `json:"unsupported_types"`
	BlockCount       int       `json:"block_count"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// Image is one image manifest entry. Index is the 0-based position in the
// manifest. Src is empty until InlineImages fills it with a data URL.
type Image struct {
	Index   int    `json:"index"`
	Token   string `json:"token"`
	BlockID string `json:"block_id"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Src     string `json:"src,omitempty"`
}

// Media is a downloaded media object encoded as a data URL.
type Media = feishu.Media

// Token cache types. A TokenStore is keyed by a digest of the app
// credentials; the secret never appears in a key.
type (
	TokenStore  = feishu.TokenStore
	TokenEntry  = feishu.TokenEntry
	MemoryStore = feishu.MemoryStore
	RedisStore  = feishu.RedisStore
)

// NewMemoryStore returns an in-process token store that can be shared by
// several extractors.
func NewMemoryStore() *MemoryStore {
	return feishu.NewMemoryStore()
}

// NewRedisStore returns a token store backed by Redis. An empty prefix
// selects the default key prefix.
func NewRedisStore(rdb *goredis.Client, prefix string) *RedisStore {
	return feishu.NewRedisStore(rdb, prefix)
}

// DialRedis connects to addr and verifies the connection with a ping.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	return feishu.DialRedis(ctx, addr)
}

// Option configures an Extractor.
type Option func(*Extractor)

// extractorConfig holds internal configuration for Extractor.
type extractorConfig struct {
	timeout        time.Duration
	sanitize       bool
	highlight      bool
	highlightStyle string
	styleInput     string
	assetPath      string
	imageWorkers   int
	logger         *zap.Logger
	clientOpts     []feishu.Option
}

// WithTimeout bounds each Extract call, including every page fetch.
// Panics if d is not positive.
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("lark2html: WithTimeout duration must be positive")
	}
	return func(e *Extractor) {
		e.cfg.timeout = d
	}
}

// WithSanitize runs the content HTML through an allow-list sanitizer that
// keeps the renderer's markup vocabulary.
func WithSanitize(enabled bool) Option {
	return func(e *Extractor) {
		e.cfg.sanitize = enabled
	}
}

// WithCodeHighlight enables syntax highlighting of code blocks with the
// named chroma style. An empty style selects "github".
func WithCodeHighlight(style string) Option {
	return func(e *Extractor) {
		e.cfg.highlight = true
		e.cfg.highlightStyle = style
	}
}

// WithStyle sets the stylesheet used by Standalone: an embedded style name
// ("default", "minimal"), a CSS file path, or CSS content.
func WithStyle(style string) Option {
	return func(e *Extractor) {
		e.cfg.styleInput = style
	}
}

// WithAssetPath sets a directory holding styles/ and templates/ that
// override the embedded assets.
func WithAssetPath(path string) Option {
	return func(e *Extractor) {
		e.cfg.assetPath = path
	}
}

// WithImageWorkers bounds concurrent downloads in InlineImages.
// Panics if n is not positive.
func WithImageWorkers(n int) Option {
	if n <= 0 {
		panic("lark2html: WithImageWorkers count must be positive")
	}
	return func(e *Extractor) {
		e.cfg.imageWorkers = n
	}
}

// WithLogger sets the logger. Credentials and tokens are redacted from
// every log entry. The default discards logs.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		e.cfg.logger = l
	}
}

// WithTokenStore sets the tenant token cache. The default is a store
// private to the extractor.
func WithTokenStore(store TokenStore) Option {
	return func(e *Extractor) {
		e.cfg.clientOpts = append(e.cfg.clientOpts, feishu.WithTokenStore(store))
	}
}

// WithBaseURL overrides the Open API base URL, for example
// https://open.larksuite.com/open-apis for Lark tenants.
func WithBaseURL(baseURL string) Option {
	return func(e *Extractor) {
		e.cfg.clientOpts = append(e.cfg.clientOpts, feishu.WithBaseURL(baseURL))
	}
}

// WithHTTPClient sets the HTTP client used for every API call.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Extractor) {
		e.cfg.clientOpts = append(e.cfg.clientOpts, feishu.WithHTTPClient(hc))
	}
}

// WithClock overrides the time source for token expiry and FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
		e.cfg.clientOpts = append(e.cfg.clientOpts, feishu.WithClock(now))
	}
}

// WithPageSize sets the block page size (1..500).
func WithPageSize(n int) Option {
	return func(e *Extractor) {
		e.cfg.clientOpts = append(e.cfg.clientOpts, feishu.WithPageSize(n))
	}
}

// WithMaxMediaBytes caps the size of one downloaded media object.
func WithMaxMediaBytes(n int64) Option {
	return func(e *Extractor) {
		e.cfg.clientOpts = append(e.cfg.clientOpts, feishu.WithMaxMediaBytes(n))
	}
}
