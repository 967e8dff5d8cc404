package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/workoai/referrals/config"
	"github.com/workoai/referrals/internal/db"
	"github.com/workoai/referrals/internal/handlers"
	"github.com/workoai/referrals/internal/logging"
	"github.com/workoai/referrals/internal/metrics"
	"github.com/workoai/referrals/internal/mq"
	"github.com/workoai/referrals/internal/services"
	"github.com/workoai/referrals/internal/storage"
	"github.com/workoai/referrals/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	objects    *storage.Storage
	mq         *mq.MQ
	logger     *slog.Logger
}

// New connects the database, object storage and event backend and builds
// the router.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	bus, err := mq.Open(ctx, cfg)
	if err != nil {
		_ = objects.Close()
		_ = dbConn.Close()
		return nil, fmt.Errorf("open mq: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	userRepo := store.NewUserRepository(dbConn)
	referralRepo := store.NewReferralRepository(dbConn)

	authService, err := services.NewAuthService(userRepo, cfg.Auth, m)
	if err != nil {
		_ = objects.Close()
		_ = dbConn.Close()
		if bus != nil {
			_ = bus.Close()
		}
		return nil, err
	}

	var events services.EventPublisher
	if bus != nil {
		events = mq.NewReferralEvents(bus, cfg.MQ.Channel)
	}
	referralService := services.NewReferralService(referralRepo, events, m)
	documentService := services.NewDocumentService(objects, cfg.Upload.MaxBytes, m)

	authMiddleware := handlers.RequireAuth(authService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.HTTPMiddleware(logger),
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, handlers.RateLimitByIP(cfg.RateLimit))
	})
	router.Route("/api/referrals", func(r chi.Router) {
		handlers.ReferralRouter(r, referralService, authMiddleware)
	})
	router.Route("/api/upload", func(r chi.Router) {
		handlers.UploadRouter(r, documentService, authMiddleware)
	})
	router.Route("/uploads", func(r chi.Router) {
		handlers.DocumentRouter(r, documentService)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		objects:    objects,
		mq:         bus,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the event backend, the
// object storage and the database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		if closeErr := s.mq.Close(); closeErr != nil {
			s.logger.Warn("closing mq", "error", closeErr)
		}
	}
	if s.objects != nil {
		if closeErr := s.objects.Close(); closeErr != nil {
			s.logger.Warn("closing storage", "error", closeErr)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
