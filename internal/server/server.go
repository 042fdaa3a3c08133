// Package server is the composition root: it opens the store, builds the
// services and handlers on top of it, mounts the routes and runs the HTTP
// server until the context is cancelled.
//
//	config → store (sqlite | mongodb) → services → handlers → chi router
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/notekeep/internal/auth"
	"github.com/sakif/notekeep/internal/config"
	"github.com/sakif/notekeep/internal/handler"
	"github.com/sakif/notekeep/internal/middleware"
	"github.com/sakif/notekeep/internal/repository"
	"github.com/sakif/notekeep/internal/repository/mongodb"
	"github.com/sakif/notekeep/internal/repository/sqlite"
	"github.com/sakif/notekeep/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Store is what the server needs from a backend. Both sqlite.DB and
// mongodb.Store satisfy it.
type Store interface {
	repository.NoteRepository
	repository.UserRepository
	handler.Pinger
	io.Closer
}

var (
	_ Store = (*sqlite.DB)(nil)
	_ Store = (*mongodb.Store)(nil)
)

type Server struct {
	router *chi.Mux
	cfg    config.Config
	logger *slog.Logger
	store  Store
}

// New opens the store selected by cfg.Store.Driver and wires the server on
// top of it. The server owns the store and closes it when Start returns.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	s, err := NewWithStore(cfg, logger, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// NewWithStore wires the server on an already opened store.
func NewWithStore(cfg config.Config, logger *slog.Logger, store Store) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("server: setting up routes: %w", err)
	}
	return s, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("server: creating database directory: %w", err)
			}
		}
		return sqlite.New(cfg.DBPath)
	case config.DriverMongo:
		return mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("server: unknown store driver %q", cfg.Driver)
	}
}

// setupRoutes mounts:
//
//	GET  /healthz
//	POST /api/auth/register, /api/auth/login
//	GET  /api/auth/github/login, /api/auth/github/callback   (when configured)
//	GET  /api/auth/me                                         (auth)
//	     /api/notes/...                                       (auth)
//
// Middleware order: request id first so the logger can see it, and the
// recoverer inside the logger so a panic is logged as a 500.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	authService := service.NewAuthService(s.store, tokens, auth.NewPasswordService(), s.logger)
	noteService := service.NewNoteService(s.store, s.logger)

	var github handler.GitHubOAuth
	if s.cfg.GitHub.Enabled() {
		github = auth.NewGitHubProvider(s.cfg.GitHub.ClientID, s.cfg.GitHub.ClientSecret, s.cfg.GitHub.CallbackURL)
	}

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	noteHandler := handler.NewNoteHandler(noteService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)
	requireAuth := auth.RequireAuth(tokens, authService, s.logger)

	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimw.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.NotFound(handler.HandleNotFound)
	s.router.MethodNotAllowed(handler.HandleMethodNotAllowed)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/api/auth", func(r chi.Router) {
		authHandler.PublicRoutes(r)
		r.With(requireAuth).Get("/me", authHandler.HandleMe)
	})

	s.router.Route("/api/notes", func(r chi.Router) {
		r.Use(requireAuth)
		noteHandler.Routes(r)
	})

	return nil
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is cancelled, then drains in-flight requests
// for up to 30 seconds and closes the store.
func (s *Server) Start(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("store", s.cfg.Store.Driver),
			slog.Bool("github_sign_in", s.cfg.GitHub.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listening: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
