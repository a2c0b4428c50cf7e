package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/compozy/scenario-mcp/pkg/config"
	"github.com/compozy/scenario-mcp/pkg/logger"
	"github.com/compozy/scenario-mcp/pkg/version"
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
)

// Config holds HTTP transport settings.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

func ConfigFromServer(cfg *config.ServerConfig) *Config {
	return &Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server exposes the dispatcher over HTTP: JSON-RPC on POST /mcp plus health
// and metrics endpoints.
type Server struct {
	Router     *gin.Engine
	httpServer *http.Server
	config     *Config
	dispatcher *Dispatcher
}

func NewServer(cfg *Config, dispatcher *Dispatcher, metrics http.Handler) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger())
	router.Use(gin.Recovery())
	s := &Server{
		Router:     router,
		config:     cfg,
		dispatcher: dispatcher,
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
	s.setupRoutes(metrics)
	return s
}

func (s *Server) setupRoutes(metrics http.Handler) {
	s.Router.GET("/healthz", s.healthzHandler)
	s.Router.POST("/mcp", s.messageHandler)
	if metrics != nil {
		s.Router.GET("/metrics", gin.WrapH(metrics))
	}
}

func (s *Server) healthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.Get().Version,
	})
}

func (s *Server) messageHandler(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMessageSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, mcp.NewJSONRPCError(mcp.NewRequestId(nil), mcp.PARSE_ERROR, "failed to read request body", nil))
		return
	}
	if len(body) > maxMessageSize {
		c.JSON(http.StatusRequestEntityTooLarge, mcp.NewJSONRPCError(mcp.NewRequestId(nil), mcp.INVALID_REQUEST, "request body too large", nil))
		return
	}
	resp := s.dispatcher.HandleMessage(c.Request.Context(), json.RawMessage(body))
	if resp == nil {
		c.Status(http.StatusAccepted)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Start serves until ctx is canceled, a shutdown signal arrives or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}
	// In-flight calls outlive ctx so shutdown can drain them.
	base := context.WithoutCancel(ctx)
	s.httpServer.BaseContext = func(net.Listener) context.Context {
		return base
	}
	log.Info("Starting MCP HTTP server", "addr", s.config.Addr())
	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		} else {
			errChan <- nil
		}
	}()
	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return s.Stop(context.WithoutCancel(ctx))
	}
	log.Info("MCP HTTP server started")
	return s.waitForShutdown(ctx, errChan)
}

// Stop gracefully stops the server within the shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Shutting down MCP HTTP server")
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		return err
	}
	log.Info("MCP HTTP server stopped gracefully")
	return nil
}

func (s *Server) waitForShutdown(ctx context.Context, errChan <-chan error) error {
	log := logger.FromContext(ctx)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case <-ctx.Done():
		log.Debug("Context canceled, shutting down server")
		return s.Stop(context.WithoutCancel(ctx))
	case sig := <-quit:
		log.Info("Received shutdown signal", "signal", sig.String())
		return s.Stop(ctx)
	case err := <-errChan:
		if err != nil {
			log.Error("HTTP server failed", "error", err)
			return err
		}
		return nil
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.FromContext(c.Request.Context()).Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.EscapedPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start))
	}
}
