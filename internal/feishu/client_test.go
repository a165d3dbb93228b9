package feishu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	testAppID  = "cli_test"
	testSecret = "s3cr3t"
	testToken  = "t-test-token"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// tokenEndpoint answers token requests with testToken and counts calls.
func tokenEndpoint(calls *atomic.Int32, expire int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{
			"code":                0,
			"tenant_access_token": testToken,
			"expire":              expire,
		})
	}
}

// requireBearer fails the request when the Authorization header is wrong.
func requireBearer(t *testing.T, next http.HandlerFunc) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+testToken {
			t.Errorf("Authorization = %q", got)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func newTestClient(t *testing.T, mux *http.ServeMux, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	base := []Option{WithBaseURL(srv.URL), WithHTTPClient(srv.Client())}
	c, err := NewClient(testAppID, testSecret, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ---------------------------------------------------------------------------
// TestNewClient - Construction
// ---------------------------------------------------------------------------

func TestNewClient_RequiresCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, id, secret string
	}{
		{"both empty", "", ""},
		{"missing secret", "cli_x", ""},
		{"missing id", "", "secret"},
		{"whitespace only", "  ", "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewClient(tt.id, tt.secret)
			if !errors.Is(err, ErrAuthCredential) {
				t.Errorf("NewClient() error = %v, want ErrAuthCredential", err)
			}
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c, err := NewClient("id", "secret", WithBaseURL("https://open.larksuite.com/open-apis/"), WithPageSize(9000))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if c.BaseURL() != "https://open.larksuite.com/open-apis" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
	if c.pageSize != DefaultPageSize {
		t.Errorf("pageSize = %d, want clamp to %d", c.pageSize, DefaultPageSize)
	}
	if c.maxPages != DefaultMaxPages || c.maxMediaBytes != DefaultMaxMediaBytes {
		t.Errorf("maxPages = %d, maxMediaBytes = %d", c.maxPages, c.maxMediaBytes)
	}
}

// ---------------------------------------------------------------------------
// TestTenantToken - Issuance And Caching
// ---------------------------------------------------------------------------

func TestTenantToken_ResponseShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantToken  string
		wantErr    error
		wantAPI    *APIError
		wantDetail string
	}{
		{
			name:      "top level",
			status:    200,
			body:      `{"code":0,"tenant_access_token":"t-top","expire":7200}`,
			wantToken: "t-top",
		},
		{
			name:      "nested under data",
			status:    200,
			body:      `{"code":0,"data":{"tenant_access_token":"t-nested","expire":7200}}`,
			wantToken: "t-nested",
		},
		{
			name:    "business error",
			status:  200,
			body:    `{"code":10003,"msg":"invalid param"}`,
			wantErr: ErrAuthCredential,
			wantAPI: &APIError{Status: 200, Code: 10003, Message: "invalid param"},
		},
		{
			name:    "http error with msg",
			status:  400,
			body:    `{"code":10014,"msg":"app secret invalid"}`,
			wantErr: ErrAuthCredential,
			wantAPI: &APIError{Status: 400, Message: "app secret invalid"},
		},
		{
			name:    "http error with empty body",
			status:  502,
			body:    "",
			wantErr: ErrAuthCredential,
			wantAPI: &APIError{Status: 502, Message: "HTTP 502"},
		},
		{
			name:    "non json body",
			status:  200,
			body:    "<html>gateway</html>",
			wantErr: ErrMalformedResponse,
		},
		{
			name:       "missing expire",
			status:     200,
			body:       `{"code":0,"tenant_access_token":"t-x"}`,
			wantErr:    ErrAuthCredential,
			wantDetail: "missing tenant_access_token",
		},
		{
			name:       "missing token",
			status:     200,
			body:       `{"code":0,"expire":7200}`,
			wantErr:    ErrAuthCredential,
			wantDetail: "missing tenant_access_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mux := http.NewServeMux()
			mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", func(w http.ResponseWriter, r *http.Request) {
				var req map[string]string
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decoding token request: %v", err)
				}
				if req["app_id"] != testAppID || req["app_secret"] != testSecret {
					t.Errorf("token request body = %v", req)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c := newTestClient(t, mux)

			got, err := c.TenantToken(context.Background())
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("TenantToken() error: %v", err)
				}
				if got != tt.wantToken {
					t.Errorf("TenantToken() = %q, want %q", got, tt.wantToken)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TenantToken() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrAuthCredential) {
				t.Errorf("token failures should wrap ErrAuthCredential, got %v", err)
			}
			if tt.wantAPI != nil {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("error %v is not an *APIError", err)
				}
				if *apiErr != *tt.wantAPI {
					t.Errorf("APIError = %+v, want %+v", *apiErr, *tt.wantAPI)
				}
			}
			if tt.wantDetail != "" && !strings.Contains(err.Error(), tt.wantDetail) {
				t.Errorf("error %q should mention %q", err, tt.wantDetail)
			}
		})
	}
}

func TestTenantToken_ReuseAndExpiry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", tokenEndpoint(&calls, 7200))

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newTestClient(t, mux, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.TenantToken(ctx); err != nil {
			t.Fatalf("TenantToken() error: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("token endpoint called %d times, want 1", got)
	}

	// Still 61s away from expiry: outside the refresh buffer.
	clock.Advance(7200*time.Second - 61*time.Second)
	if _, err := c.TenantToken(ctx); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("token refreshed too early: %d calls", got)
	}

	// Exactly 60s before expiry: inside the buffer.
	clock.Advance(time.Second)
	if _, err := c.TenantToken(ctx); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("token endpoint called %d times after expiry, want 2", got)
	}
}

func TestTenantToken_CoalescesConcurrentRefresh(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		tokenEndpoint(&calls, 7200)(w, r)
	})
	c := newTestClient(t, mux)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := c.TenantToken(context.Background())
			if err == nil && tok != testToken {
				err = fmt.Errorf("token = %q", tok)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("token endpoint called %d times, want 1", got)
	}
}

func TestTenantToken_SharedStore(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", tokenEndpoint(&calls, 7200))

	store := NewMemoryStore()
	a := newTestClient(t, mux, WithTokenStore(store))
	b := newTestClient(t, mux, WithTokenStore(store))

	for _, c := range []*Client{a, b, a} {
		if _, err := c.TenantToken(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("token endpoint called %d times across clients, want 1", got)
	}
}

// ---------------------------------------------------------------------------
// TestGetDocument - Metadata
// ---------------------------------------------------------------------------

func TestGetDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want Document
	}{
		{
			name: "nested document",
			data: `{"document":{"document_id":"doxcnA","title":"Quarterly plan","revision_id":12}}`,
			want: Document{ID: "doxcnA", Title: "Quarterly plan", RevisionID: 12},
		},
		{
			name: "top level title",
			data: `{"title":"Fallback"}`,
			want: Document{ID: "doxcnA", Title: "Fallback"},
		},
		{
			name: "null data",
			data: `null`,
			want: Document{ID: "doxcnA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			mux := http.NewServeMux()
			mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", tokenEndpoint(&calls, 7200))
			mux.HandleFunc("GET /docx/v1/documents/doxcnA", requireBearer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprintf(w, `{"code":0,"msg":"success","data":%s}`, tt.data)
			}))
			c := newTestClient(t, mux)

			got, err := c.GetDocument(context.Background(), "doxcnA")
			if err != nil {
				t.Fatalf("GetDocument() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("GetDocument() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestListAllBlocks - Pagination
// ---------------------------------------------------------------------------

func TestListAllBlocks_FollowsPageTokens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var mu sync.Mutex
	var seen []string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", tokenEndpoint(&calls, 7200))
	mux.HandleFunc("GET /docx/v1/documents/doxcnA/blocks", requireBearer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page_size") != "500" {
			t.Errorf("page_size = %q", q.Get("page_size"))
		}
		pt := q.Get("page_token")
		mu.Lock()
		seen = append(seen, pt)
		mu.Unlock()

		switch pt {
		case "":
			if _, ok := q["page_token"]; ok {
				t.Error("first request should not send an empty page_token")
			}
			_, _ = w.Write([]byte(`{"code":0,"data":{"items":[{"block_id":"a"},{"block_id":"b"}],"has_more":true,"page_token":" p2 "}}`))
		case "p2":
			_, _ = w.Write([]byte(`{"code":0,"data":{"items":[{"block_id":"c"}],"has_more":true,"page_token":"p3"}}`))
		case "p3":
			_, _ = w.Write([]byte(`{"code":0,"data":{"items":[{"block_id":"d"}],"has_more":false,"page_token":"ignored"}}`))
		default:
			t.Errorf("unexpected page_token %q", pt)
		}
	}))
	c := newTestClient(t, mux)

	items, err := c.ListAllBlocks(context.Background(), "doxcnA")
	if err != nil {
		t.Fatalf("ListAllBlocks() error: %v", err)
	}

	var ids []string
	for _, raw := range items {
		var b struct {
			BlockID string `json:"block_id"`
		}
		if err := json.Unmarshal(raw, &b); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, b.BlockID)
	}
	if got := strings.Join(ids, ","); got != "a,b,c,d" {
		t.Errorf("block order = %s, want a,b,c,d", got)
	}
	if got := strings.Join(seen, "|"); got != "|p2|p3" {
		t.Errorf("page tokens = %q, want |p2|p3", got)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("token issued %d times for one listing, want 1", got)
	}
}

func TestListAllBlocks_Overflow(t *testing.T) {
	t.Parallel()

	var tokenCalls, pageCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", tokenEndpoint(&tokenCalls, 7200))
	mux.HandleFunc("GET /docx/v1/documents/doxcnA/blocks", func(w http.ResponseWriter, r *http.Request) {
		n := pageCalls.Add(1)
		_, _ = fmt.Fprintf(w, `{"code":0,"data":{"items":[{"block_id":"b%d"}],"has_more":true,"page_token":"p%d"}}`, n, n+1)
	})
	c := newTestClient(t, mux)

	items, err := c.ListAllBlocks(context.Background(), "doxcnA")
	if !errors.Is(err, ErrPaginationOverflow) {
		t.Fatalf("ListAllBlocks() error = %v, want ErrPaginationOverflow", err)
	}
	if items != nil {
		t.Errorf("overflow should not return partial items, got %d", len(items))
	}
	if got := pageCalls.Load(); got != DefaultMaxPages {
		t.Errorf("fetched %d pages, want exactly %d", got, DefaultMaxPages)
	}
}

func TestListAllBlocks_StopsWithoutPageToken(t *testing.T) {
	t.Parallel()

	var tokenCalls, pageCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", tokenEndpoint(&tokenCalls, 7200))
	mux.HandleFunc("GET /docx/v1/documents/doxcnA/blocks", func(w http.ResponseWriter, r *http.Request) {
		pageCalls.Add(1)
		_, _ = w.Write([]byte(`{"code":0,"data":{"items":"not-a-list","has_more":true,"page_token":"  "}}`))
	})
	c := newTestClient(t, mux)

	items, err := c.ListAllBlocks(context.Background(), "doxcnA")
	if err != nil {
		t.Fatalf("ListAllBlocks() error: %v", err)
	}
	if len(items) != 0 || pageCalls.Load() != 1 {
		t.Errorf("items = %d, pages = %d; want 0 items after 1 page", len(items), pageCalls.Load())
	}
}

func TestListAllBlocks_CustomLimits(t *testing.T) {
	t.Parallel()

	var tokenCalls, pageCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", tokenEndpoint(&tokenCalls, 7200))
	mux.HandleFunc("GET /docx/v1/documents/doxcnA/blocks", func(w http.ResponseWriter, r *http.Request) {
		pageCalls.Add(1)
		if got := r.URL.Query().Get("page_size"); got != "50" {
			t.Errorf("page_size = %q, want 50", got)
		}
		_, _ = w.Write([]byte(`{"code":0,"data":{"items":[],"has_more":true,"page_token":"next"}}`))
	})
	c := newTestClient(t, mux, WithPageSize(50), WithMaxPages(3))

	if _, err := c.ListAllBlocks(context.Background(), "doxcnA"); !errors.Is(err, ErrPaginationOverflow) {
		t.Fatalf("error = %v, want ErrPaginationOverflow", err)
	}
	if got := pageCalls.Load(); got != 3 {
		t.Errorf("fetched %d pages, want 3", got)
	}
}

// ---------------------------------------------------------------------------
// TestRequestErrors - Envelope Handling
// ---------------------------------------------------------------------------

func TestRequestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		status         int
		body           string
		wantAPI        *APIError
		wantMalformed  bool
		wantPermission bool
	}{
		{
			name:           "forbidden with msg",
			status:         403,
			body:           `{"code":1770032,"msg":"forbidden"}`,
			wantAPI:        &APIError{Status: 403, Code: 1770032, Message: "forbidden"},
			wantPermission: true,
		},
		{
			name:    "server error with raw body",
			status:  500,
			body:    "upstream exploded",
			wantAPI: &APIError{Status: 500, Message: "upstream exploded"},
		},
		{
			name:    "server error with empty body",
			status:  503,
			body:    "",
			wantAPI: &APIError{Status: 503, Message: "HTTP 503"},
		},
		{
			name:    "message field",
			status:  404,
			body:    `{"message":"not found"}`,
			wantAPI: &APIError{Status: 404, Message: "not found"},
		},
		{
			name:           "business permission code",
			status:         200,
			body:           `{"code":91204,"msg":"no permission"}`,
			wantAPI:        &APIError{Status: 200, Code: 91204, Message: "no permission"},
			wantPermission: true,
		},
		{
			name:    "business code without message",
			status:  200,
			body:    `{"code":1770002}`,
			wantAPI: &APIError{Status: 200, Code: 1770002, Message: "unknown error"},
		},
		{
			name:          "non json success",
			status:        200,
			body:          "<html></html>",
			wantMalformed: true,
		},
		{
			name:          "missing code",
			status:        200,
			body:          `{"data":{}}`,
			wantMalformed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			mux := http.NewServeMux()
			mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", tokenEndpoint(&calls, 7200))
			mux.HandleFunc("GET /docx/v1/documents/doxcnA", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c := newTestClient(t, mux)

			_, err := c.GetDocument(context.Background(), "doxcnA")
			if err == nil {
				t.Fatal("GetDocument() expected error")
			}
			if tt.wantMalformed {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("error = %v, want ErrMalformedResponse", err)
				}
				return
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %v is not an *APIError", err)
			}
			if *apiErr != *tt.wantAPI {
				t.Errorf("APIError = %+v, want %+v", *apiErr, *tt.wantAPI)
			}
			if apiErr.IsPermissionDenied() != tt.wantPermission {
				t.Errorf("IsPermissionDenied() = %v, want %v", apiErr.IsPermissionDenied(), tt.wantPermission)
			}
		})
	}
}

func TestRequest_ContextCanceled(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", tokenEndpoint(&calls, 7200))
	c := newTestClient(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.ListAllBlocks(ctx, "doxcnA"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestAPIError - Formatting
// ---------------------------------------------------------------------------

func TestAPIError_Error(t *testing.T) {
	t.Parallel()

	withCode := &APIError{Status: 200, Code: 99991663, Message: "token invalid"}
	if got := withCode.Error(); got != "feishu api error (code=99991663): token invalid" {
		t.Errorf("Error() = %q", got)
	}
	httpOnly := &APIError{Status: 502, Message: "HTTP 502"}
	if got := httpOnly.Error(); got != "feishu api request failed (HTTP 502): HTTP 502" {
		t.Errorf("Error() = %q", got)
	}
	var nilErr *APIError
	if nilErr.IsPermissionDenied() {
		t.Error("nil APIError should not report permission denied")
	}
}
