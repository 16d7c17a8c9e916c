// Package web serves the upload-and-extract interface: an upload form, a
// per-extraction summary page, and JSON/Markdown downloads of stored results.
package web

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// previewLen is the number of characters of each item shown on the result
// page.
const previewLen = 200

// recentLimit caps the extraction list on the index page.
const recentLimit = 10

// Extractor turns a file on disk into an ExtractedDocument.
type Extractor interface {
	Extract(ctx context.Context, path string) (*document.ExtractedDocument, error)
}

// Store persists finished extractions.
type Store interface {
	Save(ctx context.Context, sourceName string, doc *document.ExtractedDocument) (*store.Record, error)
	Get(ctx context.Context, id string) (*store.Record, error)
	List(ctx context.Context, limit int) ([]store.Record, error)
}

// Options configures a Server.
type Options struct {
	// UploadDir receives uploads while they are being extracted. Files are
	// removed as soon as the request finishes.
	UploadDir string

	// MaxUploadBytes bounds the size of an uploaded file.
	MaxUploadBytes int64

	// Formats lists the accepted file extensions, for display.
	Formats []string

	// Supported reports whether a file name has an accepted extension.
	Supported func(name string) bool

	Logger *slog.Logger
}

// Server holds the handlers' collaborators.
type Server struct {
	extractor Extractor
	store     Store
	opts      Options
	logger    *slog.Logger
	tmpl      *template.Template
}

// New builds a Server. It panics if the embedded templates fail to parse.
func New(x Extractor, st Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Supported == nil {
		opts.Supported = func(string) bool { return true }
	}
	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templateFS, "templates/*.html"))

	return &Server{
		extractor: x,
		store:     st,
		opts:      opts,
		logger:    logger,
		tmpl:      tmpl,
	}
}

// Handler returns the routed, request-logging http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /extract", s.handleExtract)
	mux.HandleFunc("GET /extractions/{id}", s.handleExtraction)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
