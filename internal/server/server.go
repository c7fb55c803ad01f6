package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/config"
	"github.com/jonathan/career-compass/internal/db"
	"github.com/jonathan/career-compass/internal/events"
	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/form"
	"github.com/jonathan/career-compass/internal/server/middleware"
	"github.com/jonathan/career-compass/internal/server/ratelimit"
	"github.com/jonathan/career-compass/internal/storage"
)

// Config holds the server's settings and collaborators.
type Config struct {
	Port int

	Store   db.Store
	Blobs   storage.Blobs
	Events  events.Publisher
	Flows   *flow.Registry
	Invoker flow.Invoker
	Jobs    careers.JobDescriber
	Catalog *careers.Catalog

	JWT         *config.JWTConfig
	Password    *config.PasswordConfig
	RateLimit   config.RateLimitConfig
	CORSOrigins []string

	// Notifier delivers password reset tokens; nil logs them at debug level.
	Notifier ResetNotifier
	Logger   *slog.Logger
}

// formKey identifies one user's form for one flow.
type formKey struct {
	user uuid.UUID
	flow string
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	logger      *slog.Logger
	rateLimiter *ratelimit.Limiter

	store       db.Store
	blobs       storage.Blobs
	events      events.Publisher
	flows       *flow.Registry
	invoker     flow.Invoker
	jobs        careers.JobDescriber
	catalog     *careers.Catalog
	corsOrigins []string

	jwtService  *JWTService
	authHandler *AuthHandler
	forms       *form.Set[formKey, json.RawMessage, json.RawMessage]
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Store == nil:
		return nil, errors.New("server: store is required")
	case cfg.Blobs == nil:
		return nil, errors.New("server: blob storage is required")
	case cfg.Flows == nil || cfg.Invoker == nil:
		return nil, errors.New("server: flow registry and invoker are required")
	case cfg.Catalog == nil:
		return nil, errors.New("server: roadmap catalog is required")
	case cfg.JWT == nil || cfg.Password == nil:
		return nil, errors.New("server: JWT and password configuration are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	publisher := cfg.Events
	if publisher == nil {
		publisher = events.Noop{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = LogResetNotifier{Logger: logger}
	}

	s := &Server{
		logger:      logger,
		store:       cfg.Store,
		blobs:       cfg.Blobs,
		events:      publisher,
		flows:       cfg.Flows,
		invoker:     cfg.Invoker,
		jobs:        cfg.Jobs,
		catalog:     cfg.Catalog,
		corsOrigins: cfg.CORSOrigins,
		rateLimiter: ratelimit.NewLimiter(ratelimit.NewConfig(
			cfg.RateLimit.RequestsPerMinute,
			cfg.RateLimit.FlowRequestsPerMinute,
			cfg.RateLimit.Burst,
		)),
	}
	s.forms = form.NewSet(func(k formKey) *form.Form[json.RawMessage, json.RawMessage] {
		return form.New(func(ctx context.Context, in json.RawMessage) (json.RawMessage, error) {
			return s.flows.Run(ctx, s.invoker, k.flow, in)
		})
	})

	s.jwtService = NewJWTService(cfg.JWT)
	userService := NewUserService(cfg.Store, cfg.Password, s.jwtService)
	s.authHandler = NewAuthHandler(userService, s.jwtService, notifier, logger)

	s.handler = s.routes()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.CORS(s.corsOrigins))
	r.Use(s.withRateLimit)

	r.Get("/health", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.authHandler.Register)
		r.Post("/login", s.authHandler.Login)
		r.Post("/password-reset", s.authHandler.RequestPasswordReset)
		r.Post("/password-reset/confirm", s.authHandler.ConfirmPasswordReset)
		r.With(middleware.Auth(s.jwtService)).Put("/password", s.authHandler.UpdatePassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(s.jwtService))

		r.Get("/me/profile", s.handleGetProfile)
		r.Put("/me/profile", s.handleUpdateProfile)
		r.Delete("/me/profile", s.handleDeleteProfile)
		r.Post("/me/roadmaps/{slug}", s.handleSaveRoadmap)

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", s.handleListApplications)
			r.Post("/", s.handleCreateApplication)
			r.Get("/board", s.handleApplicationBoard)
			r.Get("/{id}", s.handleGetApplication)
			r.Patch("/{id}", s.handleUpdateApplication)
			r.Delete("/{id}", s.handleDeleteApplication)
		})

		r.Get("/flows", s.handleListFlows)
		r.Post("/flows/{name}", s.handleRunFlow)
		r.Get("/flows/{name}/state", s.handleFlowState)

		r.Get("/resumes", s.handleListResumes)
		r.Post("/resumes", s.handleUploadResume)
		r.Post("/resumes/{id}/correct", s.handleCorrectResume)

		r.Get("/roadmaps", s.handleSearchRoadmaps)
		r.Post("/roadmaps/{slug}", s.handleGenerateRoadmap)

		r.Get("/chat/messages", s.handleChatMessages)
		r.Get("/chat/ws", s.handleChatSocket)
	})
	return r
}

// Handler returns the server's routed handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Close releases server resources that outlive requests.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// extractClientID extracts the client identifier from the request. RealIP has
// already replaced RemoteAddr with the forwarded address when present.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded", "limit", info.Limit, "reset", info.ResetTime.Format(time.RFC3339))
	jsonResponse(w, http.StatusTooManyRequests, response)
}

// session returns the authenticated user's ID. Routes behind Auth always have one.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return sess.UserID, true
}

// idParam parses a UUID path parameter. Malformed IDs read as not found.
func idParam(w http.ResponseWriter, r *http.Request, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, http.StatusNotFound, (&ErrNotFound{Resource: resource}).Error())
		return uuid.Nil, false
	}
	return id, true
}

// publish sends an event, logging failures without failing the request.
func (s *Server) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "type", event.Type, "error", err)
	}
}
