// Package server exposes the form builder over HTTP: the creator canvas and
// configuration panels, the fill-out runtime, submissions and third-party
// login callbacks.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formbuilder/internal/logging"
	"github.com/goliatone/go-formbuilder/pkg/document"
	"github.com/goliatone/go-formbuilder/pkg/identity"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
)

// AssetsPath is where the embedded stylesheet is served.
const AssetsPath = "/assets"

// SubmitterHeader names the submitting user when an upstream proxy has
// already authenticated the request.
const SubmitterHeader = "X-Formbuilder-User"

// Options wires the server's collaborators. Service is required; HTML
// defaults to a renderer over the service's registry linking AssetsPath.
type Options struct {
	Service  *document.Service
	HTML     *html.Renderer
	Identity *identity.Registry
	Theme    *theme.RendererConfig
	Logger   *slog.Logger

	// Translator localizes labels of fields that carry a labelKey or
	// placeholderKey. Pages use the ?locale= query, else DefaultLocale.
	Translator    render.Translator
	DefaultLocale string
}

// Server routes HTTP requests onto the document service and renderers.
type Server struct {
	service    *document.Service
	html       *html.Renderer
	identity   *identity.Registry
	theme      *theme.RendererConfig
	logger     *slog.Logger
	translator render.Translator
	locale     string
}

func New(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("server: document service is required")
	}
	renderer := opts.HTML
	if renderer == nil {
		var err error
		renderer, err = html.New(html.WithRegistry(opts.Service.Registry()), html.WithAssetURLPrefix(AssetsPath))
		if err != nil {
			return nil, err
		}
	}
	registry := opts.Identity
	if registry == nil {
		registry = identity.NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		service:    opts.Service,
		html:       renderer,
		identity:   registry,
		theme:      opts.Theme,
		logger:     logger,
		translator: opts.Translator,
		locale:     strings.TrimSpace(opts.DefaultLocale),
	}, nil
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET "+AssetsPath+"/", http.StripPrefix(AssetsPath, http.FileServerFS(html.AssetsFS())))

	mux.HandleFunc("GET /types", s.handleTypes)

	mux.HandleFunc("GET /forms", s.handleListForms)
	mux.HandleFunc("POST /forms", s.handleCreateForm)
	mux.HandleFunc("GET /forms/{id}", s.handleGetForm)
	mux.HandleFunc("DELETE /forms/{id}", s.handleDeleteForm)

	mux.HandleFunc("POST /forms/{id}/fields", s.handleAddField)
	mux.HandleFunc("GET /forms/{id}/fields/{fieldID}/panel", s.handlePanel)
	mux.HandleFunc("POST /forms/{id}/fields/{fieldID}", s.handleUpdateField)
	mux.HandleFunc("POST /forms/{id}/fields/{fieldID}/move", s.handleMoveField)
	mux.HandleFunc("POST /forms/{id}/fields/{fieldID}/type", s.handleReplaceField)
	mux.HandleFunc("DELETE /forms/{id}/fields/{fieldID}", s.handleRemoveField)

	mux.HandleFunc("POST /forms/{id}/submissions", s.handleSubmit)
	mux.HandleFunc("GET /forms/{id}/submissions", s.handleListSubmissions)

	mux.HandleFunc("GET /auth/{provider}/callback", s.handleAuthCallback)

	return s.withLogging(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging stores a request-scoped logger in the context and logs one
// line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.logger.With("method", r.Method, "path", r.URL.Path)
		ctx := logging.WithLogger(r.Context(), logger)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.Info("request", "status", rec.status, "duration", time.Since(start))
	})
}
