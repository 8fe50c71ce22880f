// Package api exposes stripping and inspection over HTTP.
//
//	GET  /health        liveness probe
//	POST /api/strip     multipart "file" (+ "pages", "images", "graphics"), returns the cleaned PDF
//	POST /api/inspect   multipart "file", returns the block report as JSON
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tsawler/textstrip"
	"github.com/tsawler/textstrip/observability"
)

// Config holds the service settings
type Config struct {
	Port        string
	MaxFileSize int64
	TempDir     string
}

// Server carries what every handler needs
type Server struct {
	config *Config
	logger observability.Logger
	// options apply to every strip request before the request's own fields
	options []textstrip.Option
}

// NewServer creates the handlers. opts are the service-wide stripping
// options, usually built from the configuration file.
func NewServer(config *Config, logger observability.Logger, opts ...textstrip.Option) *Server {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Server{config: config, logger: logger, options: opts}
}

// Router returns a gin engine with all routes installed
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = 8 << 20
	s.SetupRoutes(r)
	return r
}

func (s *Server) SetupRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "textstrip",
		})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/strip", s.HandleStrip)
		apiGroup.POST("/inspect", s.HandleInspect)
	}
}

// HTTPServer wraps the router in a server with timeouts
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.Port),
		Handler:      s.Router(),
		ReadTimeout:  ServerReadTimeout,
		WriteTimeout: ServerWriteTimeout,
		IdleTimeout:  ServerIdleTimeout,
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("Request",
			observability.String("method", c.Request.Method),
			observability.String("path", c.Request.URL.Path),
			observability.Int("status", c.Writer.Status()),
			observability.Duration("duration", time.Since(start)))
	}
}
