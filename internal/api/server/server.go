package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yapdol/hype-ledger/internal/api/middleware"
	"github.com/yapdol/hype-ledger/internal/api/rest"
	"github.com/yapdol/hype-ledger/internal/auth"
	"github.com/yapdol/hype-ledger/internal/live"
	"github.com/yapdol/hype-ledger/internal/logger"
	"github.com/yapdol/hype-ledger/internal/store"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	store      store.Store
	auth       *auth.Service
	feed       live.Feed
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, st store.Store, authSvc *auth.Service, feed live.Feed) *Server {
	return &Server{
		config: cfg,
		store:  st,
		auth:   authSvc,
		feed:   feed,
	}
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	// Create REST handler
	restHandler := rest.NewHandler(s.store, s.auth, s.feed)

	// Setup REST routes
	rest.SetupRoutes(router, restHandler, s.auth)

	// Create HTTP server. Live metrics ride an SSE stream, so the write
	// timeout must be long enough to hold a subscription open.
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	// Start server
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
