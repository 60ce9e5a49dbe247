// Package server exposes outline extraction and search over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tsawler/outliner"
	"github.com/tsawler/outliner/classifier"
	"github.com/tsawler/outliner/format"
	"github.com/tsawler/outliner/index"
)

// DefaultMaxUpload is the largest accepted request body
const DefaultMaxUpload = 100 << 20

// Options configures a Server. Index is optional; without it the search
// endpoint answers 503.
type Options struct {
	Config            outliner.Config
	Classifier        classifier.Classifier
	Index             *index.Index
	TitleFromMetadata bool
	MaxUpload         int64
	Logger            *slog.Logger
}

// Server handles the HTTP API
type Server struct {
	opts   Options
	logger *slog.Logger
	router chi.Router
}

// New creates a server and its routes
func New(opts Options) *Server {
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = DefaultMaxUpload
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{opts: opts, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/outline", s.handleOutline)
		r.Get("/search", s.handleSearch)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
}

// handleOutline accepts a PDF as the raw body or as the multipart field
// "file" and answers with its outline.
// POST /v1/outline
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUpload)

	data, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if format.DetectFromMagic(data) != format.PDF {
		writeError(w, http.StatusBadRequest, errors.New("request body is not a PDF"))
		return
	}

	// The PDF reader works on files.
	tmp, err := os.CreateTemp("", "outline-*.pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	tmp.Close()

	logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
	ext := outliner.Open(tmp.Name()).
		WithConfig(s.opts.Config).
		WithClassifier(s.opts.Classifier).
		WithLogger(logger)
	if s.opts.TitleFromMetadata {
		ext = ext.TitleFromMetadata()
	}

	result, warnings, err := ext.Outline(r.Context())
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, outliner.ErrEmptyDocument) {
			level = slog.LevelInfo
		}
		logger.Log(r.Context(), level, "extraction failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	w.Header().Set("X-Outline-Warnings", strconv.Itoa(len(warnings)))
	writeJSON(w, http.StatusOK, result)
}

func readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("multipart field %q: %w", "file", err)
	}
	defer file.Close()
	return io.ReadAll(file)
}

// GET /v1/search?q=...&size=N
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.opts.Index == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no index configured"))
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, index.ErrEmptyQuery)
		return
	}

	results, err := s.opts.Index.Search(r.Context(), query, queryInt(r, "size", index.DefaultSize))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
