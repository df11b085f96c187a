// Package api serves the dungeon pipeline over HTTP.
//
// Routes:
//
//	POST /v1/dungeons             run the pipeline; the body is pipeline.Options JSON
//	GET  /v1/dungeons/{id}        the solved model as JSON
//	GET  /v1/dungeons/{id}/svg    the rendered dungeon
//	GET  /v1/dungeons/{id}/summary the stored run summary
//	GET  /healthz                 liveness check
//
// Results are stored in the runner's cache under the run id, so any replica
// sharing a Redis or MongoDB cache can answer the GET routes.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/observability"
	"github.com/K1ngNothing/dungeon-generation/pkg/pipeline"
)

const (
	// DefaultMaxRooms bounds the room count of a single request.
	DefaultMaxRooms = 200

	// DefaultTimeout bounds a single pipeline run.
	DefaultTimeout = 2 * time.Minute

	// maxBodyBytes bounds the request body of POST /v1/dungeons.
	maxBodyBytes = 1 << 20
)

// Server is the HTTP front end of a [pipeline.Runner].
type Server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	maxRooms int
	timeout  time.Duration
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxRooms bounds the number of rooms a request may ask for.
func WithMaxRooms(n int) Option {
	return func(s *Server) { s.maxRooms = n }
}

// WithTimeout bounds the duration of one pipeline run.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// NewServer builds the router around runner.
func NewServer(runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		runner:   runner,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		maxRooms: DefaultMaxRooms,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealthz)
	r.Route("/v1/dungeons", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleModel)
		r.Get("/{id}/svg", s.handleSVG)
		r.Get("/{id}/summary", s.handleSummary)
	})
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// observe reports every request to the HTTP hooks and the logger.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, route, status, dur)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", dur,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCreate handles POST /v1/dungeons.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil && err != io.EOF {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body: %v", err))
		return
	}
	requireFormats(&opts, pipeline.FormatJSON, pipeline.FormatSVG)

	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, err)
		return
	}
	if rooms := opts.Dungeon.TotalRooms(); rooms > s.maxRooms {
		s.writeError(w, errors.New(errors.ErrCodeInvalidSettings,
			"dungeon has %d rooms, this server allows at most %d", rooms, s.maxRooms))
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.runner.Execute(ctx, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	summary, err := s.runner.StoreResult(ctx, result, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/dungeons/"+summary.ID)
	s.writeJSON(w, http.StatusCreated, summary)
}

// handleModel handles GET /v1/dungeons/{id}.
func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	s.writeArtifact(w, r, pipeline.FormatJSON, "application/json")
}

// handleSVG handles GET /v1/dungeons/{id}/svg.
func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	s.writeArtifact(w, r, pipeline.FormatSVG, "image/svg+xml")
}

// handleSummary handles GET /v1/dungeons/{id}/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.runner.LoadSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) writeArtifact(w http.ResponseWriter, r *http.Request, format, contentType string) {
	data, err := s.runner.LoadArtifact(r.Context(), chi.URLParam(r, "id"), format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	s.writeJSON(w, status, map[string]any{
		"error": errors.UserMessage(err),
		"code":  code,
	})
}

// requireFormats adds the formats the GET routes serve.
func requireFormats(opts *pipeline.Options, formats ...string) {
	for _, want := range formats {
		if !slices.Contains(opts.Formats, want) {
			opts.Formats = append(opts.Formats, want)
		}
	}
}
