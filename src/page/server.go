package page

import (
	"context"
	"errors"
	"net/http"
	"pulse/src/common"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ServiceName         = common.ServiceName
	RequestIDHeaderKey  = "X-Request-ID"
	RequestIDContextKey = "request_id"
	shutdownTimeout     = 5 * time.Second
)

// Server serves the document, its websocket feed and a health check.
type Server struct {
	addr      string
	doc       *Document
	hub       *Hub
	accessLog *zap.Logger
}

func NewServer(addr string, doc *Document, hub *Hub, accessLog *zap.Logger) *Server {
	if accessLog == nil {
		accessLog = zap.NewNop()
	}
	return &Server{
		addr:      addr,
		doc:       doc,
		hub:       hub,
		accessLog: accessLog,
	}
}

func (s *Server) Name() string {
	return "PageServer"
}

func (s *Server) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(s.accessLogMiddleware())
	router.Use(gin.Recovery())

	router.GET("/", s.index)
	router.GET("/ws", s.serveWS)
	router.GET("/health", s.health)
	return router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	common.Go(func() {
		common.Logger.Sugar().Infof("PageServer listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) index(c *gin.Context) {
	data, err := s.doc.RenderBytes()
	if err != nil {
		common.Logger.Sugar().Errorf("PageServer index Render error: %v", err)
		c.String(http.StatusInternalServerError, "render error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

func (s *Server) serveWS(c *gin.Context) {
	s.hub.ServeWS(c.Writer, c.Request)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"clients":   s.hub.Count(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeaderKey)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeaderKey, requestID)
		c.Set(RequestIDContextKey, requestID)
		c.Next()
	}
}

func (s *Server) accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.accessLog.Info("request",
			zap.String("request_id", c.GetString(RequestIDContextKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
