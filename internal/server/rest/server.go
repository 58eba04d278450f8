// Package rest is the HTTP transport of the server: routing, the bearer
// token gate, JSON encoding of results and errors, health and metrics.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxBodyBytes limits the size of any request body.
const MaxBodyBytes = 1 << 20

type AccountService interface {
	Register(ctx context.Context, email, password string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, accountID, token string) error
	LogoutAll(ctx context.Context, accountID string) error
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
	Profile(ctx context.Context, accountID string) (*models.Account, error)
	UpdateProfile(ctx context.Context, accountID string, fields map[string]any) (*models.Account, error)
	DeleteAccount(ctx context.Context, accountID string) (*models.Account, error)
}

type TaskService interface {
	Create(ctx context.Context, ownerID, description string, completed bool) (*models.Task, error)
	List(ctx context.Context, ownerID string) ([]models.Task, error)
}

type Server struct {
	address         string
	accounts        AccountService
	tasks           TaskService
	logger          logging.Logger
	registry        *prometheus.Registry
	metrics         *Metrics
	ready           func(context.Context) error
	shutdownTimeout time.Duration
}

type Option func(*Server)

// WithReadiness sets the check behind GET /healthz.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

func NewServer(addr string, l logging.Logger, as AccountService, ts TaskService, opts ...Option) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		address:         addr,
		accounts:        as,
		tasks:           ts,
		logger:          l.With("module", "http_server"),
		registry:        registry,
		metrics:         NewMetrics(registry),
		ready:           func(context.Context) error { return nil },
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "POST /users", s.handleRegister)
	s.handle(mux, "POST /users/login", s.handleLogin)
	s.handle(mux, "POST /users/logout", s.gate(s.handleLogout))
	s.handle(mux, "POST /users/logoutAll", s.gate(s.handleLogoutAll))
	s.handle(mux, "GET /users/me", s.gate(s.handleProfile))
	s.handle(mux, "PATCH /users/me", s.gate(s.handleUpdateProfile))
	s.handle(mux, "DELETE /users/me", s.gate(s.handleDeleteAccount))
	s.handle(mux, "POST /tasks", s.gate(s.handleCreateTask))
	s.handle(mux, "GET /tasks", s.gate(s.handleListTasks))
	s.handle(mux, "GET /healthz", s.handleHealth)

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listen)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
