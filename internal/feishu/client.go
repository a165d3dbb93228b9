package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-lark2html/internal/logger"
)

// Client defaults.
const (
	DefaultBaseURL       = "https://open.feishu.cn/open-apis"
	DefaultPageSize      = 500
	DefaultMaxPages      = 30
	DefaultMaxMediaBytes = 20 << 20

	// maxResponseBytes bounds JSON bodies; a full page of 500 blocks stays
	// far below it.
	maxResponseBytes = 64 << 20
	userAgent        = "go-lark2html"
)

// Client talks to the Open API with one app credential pair.
type Client struct {
	appID         string
	appSecret     string
	cacheKey      string
	baseURL       string
	httpClient    *http.Client
	store         TokenStore
	now           func() time.Time
	tokens        *TokenManager
	pageSize      int
	maxPages      int
	maxMediaBytes int64
	log           *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, such as the Lark
// international endpoint or a test server.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			c.baseURL = base
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenStore shares a token cache between clients or processes.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.store = store }
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPageSize sets the block page size, clamped to 1..500.
func WithPageSize(n int) Option {
	return func(c *Client) { c.pageSize = min(max(n, 1), DefaultPageSize) }
}

// WithMaxPages sets how many block pages may be fetched before the
// listing fails with ErrPaginationOverflow.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithMaxMediaBytes caps the size of a single media download.
func WithMaxMediaBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxMediaBytes = n
		}
	}
}

// NewClient builds a client for the given app credentials. Both values
// are required.
func NewClient(appID, appSecret string, opts ...Option) (*Client, error) {
	appID = strings.TrimSpace(appID)
	appSecret = strings.TrimSpace(appSecret)
	if appID == "" || appSecret == "" {
		return nil, fmt.Errorf("%w: app id and app secret are required", ErrAuthCredential)
	}

	c := &Client{
		appID:         appID,
		appSecret:     appSecret,
		cacheKey:      CacheKey(appID, appSecret),
		baseURL:       DefaultBaseURL,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		pageSize:      DefaultPageSize,
		maxPages:      DefaultMaxPages,
		maxMediaBytes: DefaultMaxMediaBytes,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "feishu")
	c.tokens = NewTokenManager(c.store, c.now, c.log)
	return c, nil
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string { return c.baseURL }

// ---------------------------------------------------------------------------
// Tenant token
// ---------------------------------------------------------------------------

// TenantToken returns a valid tenant access token, issuing one when the
// cache holds none.
func (c *Client) TenantToken(ctx context.Context) (string, error) {
	return c.tokens.Get(ctx, c.cacheKey, c.issueToken)
}

type tokenPayload struct {
	Code              *int   `json:"code"`
	Msg               string `json:"msg"`
	Message           string `json:"message"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int64  `json:"expire"`
	Data              *struct {
		TenantAccessToken string `json:"tenant_access_token"`
		Expire            int64  `json:"expire"`
	} `json:"data"`
}

func (c *Client) issueToken(ctx context.Context) (string, time.Duration, error) {
	body, err := json.Marshal(map[string]string{"app_id": c.appID, "app_secret": c.appSecret})
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrAuthCredential, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/v3/tenant_access_token/internal", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrAuthCredential, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("requesting tenant token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", 0, fmt.Errorf("reading tenant token response: %w", err)
	}

	var payload tokenPayload
	parseErr := json.Unmarshal(raw, &payload)

	if !isSuccess(resp.StatusCode) {
		detail := strings.TrimSpace(string(raw))
		if parseErr == nil {
			detail = firstNonEmpty(payload.Msg, payload.Message, detail)
		}
		if detail == "" {
			detail = "HTTP " + strconv.Itoa(resp.StatusCode)
		}
		return "", 0, fmt.Errorf("%w: %w", ErrAuthCredential, &APIError{Status: resp.StatusCode, Message: detail})
	}
	if parseErr != nil {
		return "", 0, fmt.Errorf("%w: %w: %v", ErrAuthCredential, ErrMalformedResponse, parseErr)
	}
	if payload.Code == nil || *payload.Code != 0 {
		code := -1
		if payload.Code != nil {
			code = *payload.Code
		}
		msg := firstNonEmpty(payload.Msg, payload.Message, "unknown error")
		return "", 0, fmt.Errorf("%w: %w", ErrAuthCredential, &APIError{Status: resp.StatusCode, Code: code, Message: msg})
	}

	token, expire := payload.TenantAccessToken, payload.Expire
	if payload.Data != nil {
		token = firstNonEmpty(token, payload.Data.TenantAccessToken)
		if expire == 0 {
			expire = payload.Data.Expire
		}
	}
	token = strings.TrimSpace(token)
	if token == "" || expire <= 0 {
		return "", 0, fmt.Errorf("%w: response is missing tenant_access_token or expire", ErrAuthCredential)
	}
	return token, time.Duration(expire) * time.Second, nil
}

// ---------------------------------------------------------------------------
// Authenticated JSON requests
// ---------------------------------------------------------------------------

type envelope struct {
	Code    *int            `json:"code"`
	Msg     string          `json:"msg"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// getJSON performs an authenticated GET and decodes the envelope's data
// member into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	token, err := c.TenantToken(ctx)
	if err != nil {
		return err
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	data, err := decodeEnvelope(resp.StatusCode, raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// decodeEnvelope maps an HTTP response onto the data member of the
// standard {code, msg, data} envelope.
func decodeEnvelope(status int, raw []byte) (json.RawMessage, error) {
	var env envelope
	parseErr := json.Unmarshal(raw, &env)

	if !isSuccess(status) {
		detail := strings.TrimSpace(string(raw))
		if parseErr == nil {
			detail = firstNonEmpty(env.Msg, env.Message, detail)
		}
		if detail == "" {
			detail = "HTTP " + strconv.Itoa(status)
		}
		apiErr := &APIError{Status: status, Message: detail}
		if parseErr == nil && env.Code != nil {
			apiErr.Code = *env.Code
		}
		return nil, apiErr
	}
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, parseErr)
	}
	if env.Code == nil {
		return nil, fmt.Errorf("%w: missing code", ErrMalformedResponse)
	}
	if *env.Code != 0 {
		return nil, &APIError{Status: status, Code: *env.Code, Message: firstNonEmpty(env.Msg, env.Message, "unknown error")}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return json.RawMessage("{}"), nil
	}
	return env.Data, nil
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// Document is the metadata the extractor needs.
type Document struct {
	ID         string
	Title      string
	RevisionID int64
}

type documentData struct {
	Document *struct {
		DocumentID string `json:"document_id"`
		Title      string `json:"title"`
		RevisionID int64  `json:"revision_id"`
	} `json:"document"`
	Title string `json:"title"`
}

// GetDocument fetches document metadata.
func (c *Client) GetDocument(ctx context.Context, docToken string) (Document, error) {
	var data documentData
	if err := c.getJSON(ctx, "/docx/v1/documents/"+url.PathEscape(docToken), nil, &data); err != nil {
		return Document{}, err
	}
	doc := Document{ID: docToken, Title: data.Title}
	if d := data.Document; d != nil {
		doc.Title = firstNonEmpty(d.Title, data.Title)
		doc.RevisionID = d.RevisionID
		if d.DocumentID != "" {
			doc.ID = d.DocumentID
		}
	}
	return doc, nil
}

type blocksPage struct {
	Items     json.RawMessage `json:"items"`
	PageToken string          `json:"page_token"`
	HasMore   bool            `json:"has_more"`
}

// ListAllBlocks walks the block list page by page and returns every raw
// block object in API order. Pages are fetched strictly in sequence.
func (c *Client) ListAllBlocks(ctx context.Context, docToken string) ([]json.RawMessage, error) {
	path := "/docx/v1/documents/" + url.PathEscape(docToken) + "/blocks"

	var all []json.RawMessage
	pageToken := ""
	for page := 1; ; page++ {
		query := url.Values{"page_size": {strconv.Itoa(c.pageSize)}}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		var data blocksPage
		if err := c.getJSON(ctx, path, query, &data); err != nil {
			return nil, err
		}
		items, err := pageItems(data.Items)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		c.log.Debug("block page fetched", "document", docToken, "page", page, "items", len(items))

		pageToken = strings.TrimSpace(data.PageToken)
		if !data.HasMore || pageToken == "" {
			return all, nil
		}
		if page >= c.maxPages {
			return nil, fmt.Errorf("%w: still has_more after %d pages", ErrPaginationOverflow, c.maxPages)
		}
	}
}

// pageItems accepts a missing or non-array items member as an empty page.
func pageItems(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return items, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
