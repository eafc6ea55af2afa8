// Package server exposes the submission endpoints over HTTP.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"submission-intake/internal/common/errors"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/common/observability"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Route paths.
const (
	PathContact             = "/api/contact"
	PathJobApplication      = "/api/job-application"
	PathProviderApplication = "/api/provider-application"
	PathUpload              = "/api/upload"
	PathHealth              = "/health"
	PathMetrics             = "/metrics"
)

// Handlers are the endpoint handlers. A nil handler leaves its route unmounted.
type Handlers struct {
	Contact             http.Handler
	JobApplication      http.Handler
	ProviderApplication http.Handler
	Upload              http.Handler
}

type Dependencies struct {
	Logger        logger.Logger
	Observability *observability.Observability
	HealthChecks  map[string]CheckFunc
	CORS          *CORSConfig
}

type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// NewRouter builds the chi router. Endpoint handlers are mounted for every
// method so they answer 405 with their own Allow header.
func NewRouter(handlers Handlers, deps Dependencies) *chi.Mux {
	log := deps.Logger
	cors := deps.CORS
	if cors == nil {
		cors = DefaultCORSConfig()
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(log, deps.Observability))
	r.Use(Recover(log))
	r.Use(CORS(cors))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		errors.WriteHTTPError(w, nil, errors.NewNotFoundError(req.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		errors.WriteHTTPError(w, nil, errors.NewMethodNotAllowedError(req.Method))
	})

	mount := func(path string, h http.Handler) {
		if h != nil {
			r.Handle(path, h)
		}
	}
	mount(PathContact, handlers.Contact)
	mount(PathJobApplication, handlers.JobApplication)
	mount(PathProviderApplication, handlers.ProviderApplication)
	mount(PathUpload, handlers.Upload)

	r.Get(PathHealth, healthHandler(deps.HealthChecks))
	r.Handle(PathMetrics, promhttp.Handler())

	return r
}

// Server owns the listening http.Server.
type Server struct {
	config *Config
	http   *http.Server
	logger logger.Logger
}

func New(config *Config, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		config: config,
		http: &http.Server{
			Addr:              config.Addr,
			Handler:           handler,
			ReadTimeout:       config.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      config.WriteTimeout,
		},
		logger: log,
	}
}

// Start serves until Shutdown is called. It returns nil on a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"addr": s.config.Addr})
	if err := s.http.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
