// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to workflow
// engine calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/podhive/access-engine/internal/application/service"
	"github.com/podhive/access-engine/internal/application/workflow"
	"github.com/podhive/access-engine/pkg/utils"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config        ServerConfig
	httpServer    *http.Server
	router        *gin.Engine
	engine        workflow.Engine
	notifications service.NotificationService
	tokens        *utils.TokenManager
	logger        Logger
}

// NewServer creates a new HTTP server bound to the workflow engine
func NewServer(
	config ServerConfig,
	engine workflow.Engine,
	notifications service.NotificationService,
	tokens *utils.TokenManager,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:        config,
		router:        gin.New(),
		engine:        engine,
		notifications: notifications,
		tokens:        tokens,
		logger:        logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.engine, s.notifications, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	// Combined signup + first access request needs no token
	s.router.POST("/api/v1/signup", handlers.RegisterAndRequestAccess)

	api := s.router.Group("/api/v1")
	api.Use(AuthRequired(s.tokens))
	{
		// Requests (member to pod)
		api.POST("/requests", handlers.RequestAccess)
		api.POST("/requests/:id/cancel", handlers.CancelRequest)
		api.POST("/requests/:id/reject", handlers.RejectRequest)
		api.POST("/requests/:id/accept", handlers.AcceptRequest)

		// Invitations (pod owner to user)
		api.POST("/invitations", handlers.SendInvitation)
		api.POST("/invitations/:id/cancel", handlers.CancelInvitation)
		api.POST("/invitations/:id/reject", handlers.RejectInvitation)
		api.POST("/invitations/:id/accept", handlers.AcceptInvitation)

		// Reads
		api.GET("/proposals/:id", handlers.GetProposal)
		api.GET("/proposals", handlers.ListUserProposals)
		api.GET("/pods/:id/proposals", handlers.ListPodProposals)

		// Inbox
		api.GET("/notifications", handlers.ListNotifications)
		api.POST("/notifications/:id/read", handlers.MarkNotificationRead)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
