package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const (
	testAppID    = "cli_test"
	testSecret   = "s3cr3t"
	testTenant   = "t-tenant"
	testDocToken = "doxcnCLI001"
	testDocURL   = "https://acme.feishu.cn/docx/" + testDocToken
	testPNG      = "\x89PNG\r\n\x1a\nfake"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake Open API and environment
// ---------------------------------------------------------------------------

// fakeAPI serves the four Open API endpoints the CLI touches.
type fakeAPI struct {
	mu     sync.Mutex
	titles map[string]string
	blocks map[string][]string
	denied map[string]bool
	media  map[string]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		titles: make(map[string]string),
		blocks: make(map[string][]string),
		denied: make(map[string]bool),
		media:  map[string]string{"boxcnPic": testPNG},
	}
}

func (f *fakeAPI) addDoc(token, title string, raws ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles[token] = title
	f.blocks[token] = raws
}

func (f *fakeAPI) deny(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.denied[token] = true
}

func replyJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AppID     string `json:"app_id"`
			AppSecret string `json:"app_secret"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.AppID != testAppID || body.AppSecret != testSecret {
			replyJSON(w, http.StatusOK, map[string]any{"code": 10014, "msg": "app secret invalid"})
			return
		}
		replyJSON(w, http.StatusOK, map[string]any{"code": 0, "tenant_access_token": testTenant, "expire": 7200})
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+testTenant {
				replyJSON(w, http.StatusUnauthorized, map[string]any{"code": 99991663, "msg": "invalid token"})
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("GET /docx/v1/documents/{doc}", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		doc := r.PathValue("doc")
		title, ok := f.titles[doc]
		denied := f.denied[doc]
		f.mu.Unlock()
		switch {
		case denied:
			replyJSON(w, http.StatusOK, map[string]any{"code": 1770032, "msg": "forbidden"})
		case !ok:
			replyJSON(w, http.StatusOK, map[string]any{"code": 1770002, "msg": "not found"})
		default:
			replyJSON(w, http.StatusOK, map[string]any{"code": 0, "data": map[string]any{"document": map[string]any{"title": title}}})
		}
	}))

	mux.HandleFunc("GET /docx/v1/documents/{doc}/blocks", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		raws := f.blocks[r.PathValue("doc")]
		f.mu.Unlock()
		items := make([]json.RawMessage, len(raws))
		for i, raw := range raws {
			items[i] = json.RawMessage(raw)
		}
		replyJSON(w, http.StatusOK, map[string]any{"code": 0, "data": map[string]any{"items": items, "has_more": false}})
	}))

	mux.HandleFunc("GET /drive/v1/medias/{token}/download", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		body, ok := f.media[r.PathValue("token")]
		f.mu.Unlock()
		if !ok {
			replyJSON(w, http.StatusNotFound, map[string]any{"code": 1061004, "msg": "media not found"})
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte(body))
	}))

	return mux
}

// simpleDoc returns the blocks of a document with a heading, a paragraph
// and an image.
func simpleDoc(token string) []string {
	return []string{
		fmt.Sprintf(`{"block_id":%q,"block_type":1,"children":["h","p","img"],"page":{"elements":[]}}`, token),
		`{"block_id":"h","block_type":3,"heading1":{"elements":[{"text_run":{"content":"Launch plan"}}]}}`,
		`{"block_id":"p","block_type":2,"text":{"elements":[{"text_run":{"content":"Ship it on Monday."}}]}}`,
		`{"block_id":"img","block_type":27,"image":{"token":"boxcnPic","width":10,"height":10}}`,
	}
}

// testSetup bundles a fake API, its server and a config file pointing at it.
type testSetup struct {
	api        *fakeAPI
	server     *httptest.Server
	configPath string
	stdout     *bytes.Buffer
	stderr     *bytes.Buffer
	env        *Environment
}

func newTestSetup(t *testing.T) *testSetup {
	t.Helper()

	api := newFakeAPI()
	api.addDoc(testDocToken, "Launch Plan", simpleDoc(testDocToken)...)
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	s := &testSetup{
		api:        api,
		server:     srv,
		configPath: writeTestConfig(t, srv.URL, testAppID, testSecret),
		stdout:     &bytes.Buffer{},
		stderr:     &bytes.Buffer{},
	}
	s.env = &Environment{
		Now:        func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
		Stdout:     s.stdout,
		Stderr:     s.stderr,
		HTTPClient: srv.Client(),
	}
	return s
}

// run invokes the CLI with the setup's config file.
func (s *testSetup) run(t *testing.T, args ...string) int {
	t.Helper()
	full := append([]string{"lark2html"}, args...)
	full = append(full, "--config", s.configPath)
	return runMain(t.Context(), full, s.env)
}

func writeTestConfig(t *testing.T, baseURL, appID, secret string) string {
	t.Helper()
	content := fmt.Sprintf("app:\n  id: %q\n  secret: %q\napi:\n  baseURL: %s\n  timeout: 5s\n", appID, secret, baseURL)
	path := filepath.Join(t.TempDir(), "lark2html.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
