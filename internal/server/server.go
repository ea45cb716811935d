// Package server is the composition root: it wires storage, services,
// handlers and middleware into one router and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/codecraft/internal/auth"
	"github.com/sakif/codecraft/internal/config"
	"github.com/sakif/codecraft/internal/executor"
	"github.com/sakif/codecraft/internal/handler"
	"github.com/sakif/codecraft/internal/metrics"
	"github.com/sakif/codecraft/internal/middleware"
	"github.com/sakif/codecraft/internal/repository"
	"github.com/sakif/codecraft/internal/service"
	"github.com/sakif/codecraft/internal/stats"
	"github.com/sakif/codecraft/internal/webhook"
)

// Store is a repository.Store that can also report its health.
type Store interface {
	repository.Store
	handler.Pinger
}

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	store  Store
	logger *slog.Logger
}

// New wires every route. exec may be nil; /api/execute then answers 502.
func New(cfg *config.Config, store Store, exec executor.Executor, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, auth.DefaultTTL)
	if err != nil {
		return nil, fmt.Errorf("server: creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
	if err := s.setupRoutes(tokens, exec); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and route handlers.
//
// Middleware order: request id first so the access log can read it, then
// real IP, metrics, logging, panic recovery and CORS.
func (s *Server) setupRoutes(tokens *auth.TokenService, exec executor.Executor) error {
	// === Services ===
	users := service.NewUserService(s.store, s.cfg.UserCacheSize, s.cfg.UserCacheTTL, s.logger)
	snippets := service.NewSnippetService(s.store, s.store, s.store, users, s.logger)
	stars := service.NewStarService(s.store, s.store, s.logger)
	execs := service.NewExecutionService(s.store, users, exec, s.logger)
	authSvc := service.NewAuthService(users, tokens, s.logger)
	agg := stats.NewAggregator(s.store, s.store, s.store, s.logger)

	var github *auth.GitHubProvider
	if s.cfg.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.cfg.GitHubClientID, s.cfg.GitHubClientSecret, s.cfg.GitHubCallbackURL)
	} else {
		s.logger.Warn("GitHub OAuth not configured; login routes will answer 503")
	}

	// === Handlers ===
	authH := handler.NewAuthHandler(github, authSvc, tokens, s.cfg.SecureCookies, s.logger)
	snippetH := handler.NewSnippetHandler(snippets, stars, s.logger)
	execH := handler.NewExecuteHandler(execs, s.logger)
	statsH := handler.NewStatsHandler(agg)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	// === Ops ===
	s.router.Get("/health", handler.HandleHealth(s.store))
	s.router.Handle("/metrics", promhttp.Handler())

	// === Identity webhook ===
	if s.cfg.WebhookSecret != "" {
		verifier, err := webhook.NewVerifier(s.cfg.WebhookSecret)
		if err != nil {
			return fmt.Errorf("server: creating webhook verifier: %w", err)
		}
		relay := webhook.NewRelay(verifier, users, s.logger, metrics.RecordWebhookEvent)
		s.router.Post("/webhooks/identity", handler.NewWebhookHandler(relay, s.logger).HandleIdentity)
	} else {
		s.logger.Warn("WEBHOOK_SECRET not set; identity webhook is disabled")
	}

	// === Auth ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", authH.HandleGitHubLogin)
		r.Get("/github/callback", authH.HandleGitHubCallback)
		r.Post("/logout", authH.HandleLogout)
	})

	// === API ===
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/languages", handler.HandleLanguages)
		r.With(requireAuth).Get("/me", authH.HandleMe)

		r.Route("/snippets", func(r chi.Router) {
			r.Get("/", snippetH.HandleList)
			r.With(requireAuth).Post("/", snippetH.HandleCreate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", snippetH.HandleGet)
				r.With(optionalAuth).Delete("/", snippetH.HandleDelete)
				r.With(requireAuth).Post("/star", snippetH.HandleToggleStar)
				r.With(optionalAuth).Get("/star", snippetH.HandleIsStarred)
				r.Get("/stars", snippetH.HandleStarCount)
				r.Get("/comments", snippetH.HandleListComments)
				r.With(requireAuth).Post("/comments", snippetH.HandleAddComment)
			})
		})

		r.With(requireAuth).Post("/executions", execH.HandleRecord)
		r.Get("/users/{id}/executions", execH.HandleList)
		r.Get("/users/{id}/stats", statsH.HandleStats)

		r.With(requireAuth, s.executeLimiter()).Post("/execute", execH.HandleExecute)
	})

	return nil
}

// executeLimiter caps server-side runs per authenticated user. It must sit
// after RequireAuth so the caller id is in the context.
func (s *Server) executeLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(s.cfg.ExecuteRateLimit, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if id, ok := auth.UserIDFromContext(r.Context()); ok {
				return id, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limited","message":"too many executions, try again in a minute"}`))
		}),
	)
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up to
// 30 seconds and closes the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // executions can be slow
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("db_driver", s.cfg.DBDriver),
			slog.String("executor", s.cfg.Executor),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
