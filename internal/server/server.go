package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nodel/pkg/cache"
	"github.com/matzehuels/nodel/pkg/config"
	"github.com/matzehuels/nodel/pkg/storage"
)

// Server serves the diagram API.
type Server struct {
	cfg      config.Config
	ws       *Workspace
	storage  storage.Store
	cache    cache.Cache
	keyer    cache.Keyer
	logger   *log.Logger
	router   chi.Router
	cacheTTL time.Duration
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the logger for request and diagram diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCache sets the cache for rendered SVG and PNG output.
func WithCache(c cache.Cache) Option {
	return func(s *Server) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithKeyer replaces the default render cache keyer.
func WithKeyer(k cache.Keyer) Option {
	return func(s *Server) {
		if k != nil {
			s.keyer = k
		}
	}
}

// WithIDGenerator sets the node id generator of every diagram the server
// opens.
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) { s.ws.newID = fn }
}

// New creates a server that persists diagrams in store.
func New(cfg config.Config, store storage.Store, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		storage:  store,
		cache:    cache.NewNullCache(),
		keyer:    cache.NewDefaultKeyer(),
		logger:   log.Default(),
		cacheTTL: cfg.Cache.TTL.Duration,
	}
	s.ws = NewWorkspace(cfg.Render, s.logger)
	for _, opt := range opts {
		opt(s)
	}
	s.ws.logger = s.logger
	s.router = s.routes()
	return s
}

// Workspace returns the open diagrams.
func (s *Server) Workspace() *Workspace { return s.ws }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/diagrams", s.handleListDiagrams)

	r.Route("/diagrams/{name}", func(r chi.Router) {
		r.Delete("/", s.handleDeleteDiagram)
		r.Post("/save", s.handleSave)
		r.Post("/open", s.handleOpen)
		r.Get("/snapshot", s.handleGetSnapshot)
		r.Put("/snapshot", s.handlePutSnapshot)

		r.Post("/nodes", s.handleAddNode)
		r.Route("/nodes/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetNode)
			r.Delete("/", s.handleDeleteNode)
			r.Put("/position", s.handleMoveNode)
			r.Post("/group", s.handleCreateGroup)
			r.Post("/toggle", s.handleToggleGroup)
			r.Get("/map", s.handleGroupMap)
		})
		r.Post("/maps", s.handleInstantiate)

		r.Get("/edges", s.handleListEdges)
		r.Post("/edges", s.handleConnect)
		r.Delete("/edges", s.handleDisconnect)
		r.Post("/edges/toggle", s.handleToggleConnect)
		r.Get("/edges/type", s.handleConnectionType)
		r.Put("/edges/type", s.handleSetConnectionType)

		r.Get("/query/{kind}", s.handleQuery)
		r.Post("/batch", s.handleBatch)
		r.Post("/events", s.handleEvent)
		r.Get("/render.{format}", s.handleRender)
	})
	return r
}

// requestLogger logs one line per request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logf := s.logger.Info
		if ww.Status() >= http.StatusInternalServerError {
			logf = s.logger.Warn
		}
		logf("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: s.cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
