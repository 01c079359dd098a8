package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/c360/taskql/errors"
	"github.com/c360/taskql/health"
	"github.com/c360/taskql/metric"
)

// Server manages the HTTP listener serving the GraphQL endpoint, the
// playground, health and metrics.
type Server struct {
	config     Config
	resolver   *Resolver
	logger     *slog.Logger
	metrics    *metric.MetricsRegistry
	checker    *health.Checker
	httpServer *http.Server
	mux        *http.ServeMux
	listener   net.Listener

	// shutdownTimeout bounds Stop when Start's context is cancelled.
	shutdownTimeout time.Duration

	// Lifecycle
	running  bool
	mu       sync.RWMutex
	stopChan chan struct{}
	stopOnce sync.Once
}

// ServerOption configures optional server dependencies.
type ServerOption func(*Server)

// WithMetrics exposes registry at /metrics.
func WithMetrics(registry *metric.MetricsRegistry) ServerOption {
	return func(s *Server) {
		s.metrics = registry
	}
}

// WithHealthChecker reports checker results at /health.
func WithHealthChecker(checker *health.Checker) ServerOption {
	return func(s *Server) {
		s.checker = checker
	}
}

// WithShutdownTimeout sets how long in-flight requests may run after Start's
// context is cancelled. The default is 30s.
func WithShutdownTimeout(timeout time.Duration) ServerOption {
	return func(s *Server) {
		if timeout > 0 {
			s.shutdownTimeout = timeout
		}
	}
}

// NewServer creates a new GraphQL HTTP server
func NewServer(config Config, resolver *Resolver, logger *slog.Logger, opts ...ServerOption) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Server", "NewServer", "config validation")
	}

	if resolver == nil {
		return nil, errors.WrapFatal(fmt.Errorf("resolver is nil"), "Server", "NewServer",
			"resolver is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   config,
		resolver: resolver,
		logger:   logger.With("component", "graphql-server"),
		mux:      http.NewServeMux(),
		stopChan: make(chan struct{}),

		shutdownTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Setup configures the HTTP server and routes
func (s *Server) Setup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schema, err := NewSchema(s.config, s.resolver)
	if err != nil {
		return err
	}

	if s.metrics != nil {
		ops, err := RootOperations()
		if err != nil {
			return err
		}
		s.metrics.PrimeOperations(ops)
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	var graphqlHandler http.Handler = NewHandler(schema, s.config, s.logger)
	if s.config.RateLimit > 0 {
		graphqlHandler = s.rateLimitMiddleware(graphqlHandler,
			rate.NewLimiter(rate.Limit(s.config.RateLimit), s.config.RateBurst))
		s.logger.Info("GraphQL rate limit enabled",
			"requests_per_second", s.config.RateLimit,
			"burst", s.config.RateBurst)
	}
	s.mux.Handle(s.config.Path, graphqlHandler)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	if s.config.EnablePlayground {
		s.mux.Handle("GET /{$}", playground.Handler("Tasks", s.config.Path))
		s.logger.Info("GraphQL Playground enabled",
			"url", fmt.Sprintf("http://%s/", s.config.BindAddress))
	}

	var handler http.Handler = s.mux
	if s.config.EnableCORS {
		handler = s.corsMiddleware(handler)
	}
	handler = s.requestIDMiddleware(handler)

	// WriteTimeout leaves headroom over the per-request execution timeout so
	// a timed out request still gets its error response.
	s.httpServer = &http.Server{
		Addr:              s.config.BindAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.config.Timeout(),
		WriteTimeout:      s.config.Timeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("Server configured",
		"address", s.config.BindAddress,
		"path", s.config.Path,
		"timeout", s.config.Timeout())

	return nil
}

// Handler returns the fully wrapped HTTP handler. Setup must be called first.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Handler
}

// Start binds the listener and serves until ctx is cancelled or Stop is
// called. ready is closed once the socket accepts connections.
func (s *Server) Start(ctx context.Context, ready chan<- struct{}) error {
	s.mu.Lock()
	if s.httpServer == nil {
		s.mu.Unlock()
		return errors.WrapFatal(errors.ErrNotStarted, "Server", "Start", "Setup must be called first")
	}
	if s.running {
		s.mu.Unlock()
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Server", "Start", "server already running")
	}

	ln, err := net.Listen("tcp", s.config.BindAddress)
	if err != nil {
		s.mu.Unlock()
		return errors.WrapFatal(err, "Server", "Start", "listen on "+s.config.BindAddress)
	}
	s.listener = ln
	s.running = true
	server := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Server listening", "address", ln.Addr().String())
	if ready != nil {
		close(ready)
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
			select {
			case errChan <- err:
			case <-ctx.Done():
			case <-s.stopChan:
			}
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Server context cancelled, shutting down")
		return s.Stop(s.shutdownTimeout)

	case <-s.stopChan:
		s.logger.Info("Server stop requested")
		return nil

	case err := <-errChan:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return errors.WrapFatal(err, "Server", "Start", "HTTP server failed")
	}
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	server := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Server stopping")

	s.stopOnce.Do(func() {
		close(s.stopChan)
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown server gracefully", "error", err)
		return errors.WrapTransient(err, "Server", "Stop", "graceful shutdown failed")
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Server stopped")
	return nil
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// handleHealth reports the aggregate health of the store and NATS.
// Degraded still answers 200; unhealthy answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var status health.Status
	if s.checker != nil {
		status = s.checker.Check(r.Context())
	} else {
		status = health.NewHealthy("taskql", "No checks registered")
	}

	code := http.StatusOK
	if status.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Warn("Failed to write health response", "error", err)
	}
}

// requestIDMiddleware propagates or assigns an X-Request-ID.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

// rateLimitMiddleware rejects requests beyond the limiter's budget with 429.
func (s *Server) rateLimitMiddleware(next http.Handler, limiter *rate.Limiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			loggerFrom(r.Context(), s.logger).Warn("Request rate limited", "remote", r.RemoteAddr)
			w.Header().Set("Retry-After", "1")
			writeTransportError(w, http.StatusTooManyRequests, CodeRateLimited, "Too many requests.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowed, wildcard := false, false
		for _, allowedOrigin := range s.config.CORSOrigins {
			if allowedOrigin == "*" {
				allowed, wildcard = true, true
				break
			}
			if allowedOrigin == origin {
				allowed = true
			}
		}

		if allowed {
			if wildcard {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, PUT, PATCH, POST, DELETE")
			w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
		}

		// Preflight
		if r.Method == http.MethodOptions {
			if allowed {
				if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
					w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
					w.Header().Add("Vary", "Access-Control-Request-Headers")
				}
			}
			w.Header().Set("Content-Length", "0")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
