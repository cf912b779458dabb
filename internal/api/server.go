// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/xrpl-farmer-api/internal/logging"
	"github.com/xrpl-farmer-api/internal/ratelimit"
	"github.com/xrpl-farmer-api/internal/service"
)

// LookupServiceInterface defines the farmer lookup operations served over HTTP
type LookupServiceInterface interface {
	Verify(ctx context.Context, address string) (*service.VerifyResult, error)
	VerifyBulk(ctx context.Context, addresses []string) (*service.BulkVerifyResult, error)
}

// Pinger reports whether the backing database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthCheckTimeout = 2 * time.Second

// Server represents the HTTP API server.
type Server struct {
	router        *mux.Router
	httpServer    *http.Server
	lookupService LookupServiceInterface
	db            Pinger
	limiter       ratelimit.Limiter
	logger        *logging.Logger
	config        *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// NewServer creates a new API server instance. A nil limiter disables rate limiting.
func NewServer(
	config *ServerConfig,
	lookupService LookupServiceInterface,
	db Pinger,
	limiter ratelimit.Limiter,
	logger *logging.Logger,
) *Server {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	s := &Server{
		router:        mux.NewRouter(),
		lookupService: lookupService,
		db:            db,
		limiter:       limiter,
		logger:        logger,
		config:        config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// Middleware order matters: request ids and recovery wrap everything else
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware)
	s.router.Use(SecurityHeadersMiddleware)
	s.router.Use(CORSMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Readiness probe, not rate limited
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	lookup := s.router.NewRoute().Subrouter()
	if s.limiter != nil {
		lookup.Use(RateLimitMiddleware(s.limiter, s.logger))
	}

	lookup.HandleFunc("/ping", s.handlePing).Methods(http.MethodGet, http.MethodOptions)
	lookup.HandleFunc("/verify", s.handleVerify).Methods(http.MethodGet, http.MethodOptions)
	lookup.HandleFunc("/verify-bulk", s.handleVerifyBulk).Methods(http.MethodPost, http.MethodOptions)
}

// handleHealth reports whether the database answers a ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		logging.FromContextOr(r.Context(), s.logger).WithError(err).Warn("Health check failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "down",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "up",
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
