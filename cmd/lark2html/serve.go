package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	lark2html "github.com/alnah/go-lark2html"
)

// HTTP API limits.
const (
	maxRequestBytes   = 1 << 20
	requestIDHeader   = "X-Request-Id"
	maxRequestIDLen   = 128
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// extractRequest is the body of POST /v1/extract. Omitted switches fall
// back to the server configuration.
type extractRequest struct {
	URL          string `json:"url"`
	Standalone   *bool  `json:"standalone,omitempty"`
	InlineImages *bool  `json:"inline_images,omitempty"`
}

// extractResponse is the extracted document plus, on request, the
// standalone page.
type extractResponse struct {
	*lark2html.ExtractedDocument
	StandaloneHTML string `json:"standalone_html,omitempty"`
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// apiServer serves extractions over HTTP.
type apiServer struct {
	ext          *lark2html.Extractor
	log          *zap.Logger
	standalone   bool
	inlineImages bool
}

// runServeCmd runs the HTTP API until ctx is canceled.
func runServeCmd(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	cfg, _, err := loadCLIConfig(flags.common, env)
	if err != nil {
		return err
	}
	mergeRenderFlags(flags.render, flags.assets, flags.timeout, cfg)
	if flags.addr != "" {
		cfg.Serve.Addr = flags.addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := buildLogger(cfg, !flags.common.quiet)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ext, cleanup, err := newExtractor(ctx, cfg, env, log)
	if err != nil {
		return err
	}
	defer cleanup()

	s := &apiServer{
		ext:          ext,
		log:          log,
		standalone:   cfg.Output.Standalone,
		inlineImages: cfg.Output.InlineImages,
	}
	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// routes builds the chi router.
func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Get("/media/{token}", s.handleMedia)
	})
	return r
}

// requestID propagates a caller-supplied X-Request-Id or mints one, and
// attaches it to the context so library logs carry it.
func (s *apiServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(lark2html.ContextWithRequestID(r.Context(), id)))
	})
}

// accessLog writes one line per request.
func (s *apiServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", w.Header().Get(requestIDHeader)),
		)
	})
}

func (s *apiServer) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.writeError(w, r, http.StatusBadRequest, ErrNoURL)
		return
	}

	ctx := r.Context()
	doc, err := s.ext.Extract(ctx, req.URL)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	if boolOr(req.InlineImages, s.inlineImages) && doc.ImageCount > 0 {
		if err := s.ext.InlineImages(ctx, doc); err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}
	}

	resp := extractResponse{ExtractedDocument: doc}
	if boolOr(req.Standalone, s.standalone) {
		if resp.StandaloneHTML, err = s.ext.Standalone(ctx, doc); err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleMedia(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	media, err := s.ext.DownloadMedia(r.Context(), token)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	data, err := decodeDataURL(media.DataURL)
	if err != nil {
		s.writeError(w, r, http.StatusBadGateway, fmt.Errorf("%w: %v", lark2html.ErrMediaDownload, err))
		return
	}
	w.Header().Set("Content-Type", media.MIMEType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// writeError logs err and replies with its message.
func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	id := w.Header().Get(requestIDHeader)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("request_id", id), zap.Error(err))
	} else {
		s.log.Warn("request rejected", zap.String("request_id", id), zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: id})
}

// statusFor maps library errors onto HTTP status codes.
func statusFor(err error) int {
	var apiErr *lark2html.APIError
	switch {
	case errors.Is(err, lark2html.ErrInvalidURL), errors.Is(err, ErrUsage):
		return http.StatusBadRequest
	case errors.As(err, &apiErr) && apiErr.IsPermissionDenied():
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case apiErr != nil,
		errors.Is(err, lark2html.ErrAuthCredential),
		errors.Is(err, lark2html.ErrPaginationOverflow),
		errors.Is(err, lark2html.ErrMediaDownload),
		errors.Is(err, lark2html.ErrMalformedResponse),
		errors.Is(err, lark2html.ErrEmptyBlockList),
		errors.Is(err, lark2html.ErrEmptyRender):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
