package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"go.uber.org/zap"
)

// Server wraps the HTTP server with sane timeouts and graceful shutdown.
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

func NewServer(port string, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + port,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: log.Named("HTTPServer"),
	}
}

// Run blocks serving requests until the server is shut down.
func (s *Server) Run() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
