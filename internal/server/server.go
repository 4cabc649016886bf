package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"leadlens/internal/config"
	"leadlens/internal/leads"
	"leadlens/internal/logging"
)

const maxBodyBytes = 64 << 10

// LeadService is the lead store surface the handlers need.
type LeadService interface {
	Upsert(ctx context.Context, sub leads.Submission) (leads.Result, error)
	Update(ctx context.Context, sub leads.Submission) (leads.Result, error)
	Exists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]leads.Lead, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// Option customizes a Server.
type Option func(*Server)

// WithHealthCheck adds a dependency probe to /api/health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		if check != nil {
			s.checks = append(s.checks, namedCheck{name: name, check: check})
		}
	}
}

// Server is the leadlens HTTP front end.
type Server struct {
	cfg    *config.Config
	leads  LeadService
	logger *slog.Logger
	checks []namedCheck

	handler  http.Handler
	server   *http.Server
	listener net.Listener
}

// New wires routes and middleware. It does not start listening.
func New(cfg *config.Config, leadSvc LeadService, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		leads:  leadSvc,
		logger: logging.NewComponentLogger(logger, "http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.buildHandler()
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) buildHandler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.requestContext, s.accessLog)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/saveToSheets", s.handleSave).Methods(http.MethodPost)
	api.HandleFunc("/saveToSheets", s.handleExists).Methods(http.MethodGet)
	api.HandleFunc("/saveToSheets", s.handleUpdate).Methods(http.MethodPut)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/lens-config", s.handleLensConfig).Methods(http.MethodGet)
	api.HandleFunc("/leads", authMiddleware(s.cfg.Server.AdminToken, s.handleListLeads)).Methods(http.MethodGet)
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "not found"})
	})
	api.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "message": "method not allowed"})
	})

	router.PathPrefix("/").Handler(newSPAHandler(s.cfg.Server.StaticDir))

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.cfg.Server.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept", "Accept-Language", "Authorization", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: s.logger}),
		handlers.PrintRecoveryStack(s.cfg.Server.Development),
	)
	return recovery(cors(router))
}

// Start begins serving on the configured bind address and shuts down when
// ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Server.Bind)
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("http server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("static_dir", s.cfg.Server.StaticDir),
		logging.String("store", s.cfg.Store.Backend),
	)
	return nil
}

// Stop gracefully shuts the listener down.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

// Addr reports the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(values ...any) {
	logging.ErrorWithContext(context.Background(), l.logger, "handler panic", "http_panic",
		logging.String("panic", fmt.Sprint(values...)),
		logging.String(logging.FieldErrorHint, "inspect the stack trace in development mode"),
	)
}
