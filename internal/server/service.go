package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/sockctl/internal/command"
	"github.com/danmuck/sockctl/internal/config"
	"github.com/danmuck/sockctl/internal/protocol"
	"github.com/danmuck/sockctl/internal/store"
)

// Service wires store, registry, dispatcher, listener, and the optional
// admin HTTP surface into one runnable process.
type Service struct {
	cfg        config.ServerConfig
	store      *store.Store
	registry   *command.Registry
	dispatcher *Dispatcher
	server     *Server
	startedAt  time.Time
}

func NewService(cfg config.ServerConfig) (*Service, error) {
	if err := config.ValidateServerConfig(cfg); err != nil {
		return nil, err
	}
	startedAt := time.Now()

	st := store.New()
	registry, err := command.Builtin(st, startedAt)
	if err != nil {
		return nil, err
	}

	limits := protocol.Limits{MaxLineBytes: cfg.MaxLineBytes}
	dispatcher := NewDispatcher(cfg.Name, registry, limits)

	return &Service{
		cfg:        cfg,
		store:      st,
		registry:   registry,
		dispatcher: dispatcher,
		server:     NewServer(cfg.Name, cfg.SocketPath, dispatcher),
		startedAt:  startedAt,
	}, nil
}

// Run serves until SIGINT/SIGTERM or a listener failure.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext serves until ctx is canceled.
func (s *Service) RunContext(ctx context.Context) error {
	grace, err := s.cfg.ShutdownGraceDuration()
	if err != nil {
		return err
	}

	var admin *http.Server
	adminErr := make(chan error, 1)
	if s.cfg.AdminAddr != "" {
		admin = &http.Server{
			Addr:    s.cfg.AdminAddr,
			Handler: s.adminRouter(),
		}
		go func() {
			log.Info().Str("addr", s.cfg.AdminAddr).Msg("admin surface listening")
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				adminErr <- err
				return
			}
			adminErr <- nil
		}()
	}

	serveErr := make(chan error, 1)
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		serveErr <- s.server.Serve(serveCtx)
	}()

	var runErr error
	select {
	case runErr = <-serveErr:
		serveErr = nil
	case err := <-adminErr:
		adminErr = nil
		runErr = err
	case <-ctx.Done():
	}
	cancel()

	if admin != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), grace)
		defer shutdownCancel()
		if err := admin.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("admin shutdown failed")
		}
		if adminErr != nil {
			if err := <-adminErr; err != nil && runErr == nil {
				runErr = err
			}
		}
	}
	if serveErr != nil {
		if err := <-serveErr; err != nil && runErr == nil {
			runErr = err
		}
	}

	log.Info().Str("server", s.cfg.Name).Msg("service stopped")
	return runErr
}

// Store exposes the shared key/value state, mainly for tests and the admin
// health view.
func (s *Service) Store() *store.Store {
	return s.store
}

// Registry exposes the command registry.
func (s *Service) Registry() *command.Registry {
	return s.registry
}
