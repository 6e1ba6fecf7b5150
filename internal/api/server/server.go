package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/bz888/localchat/internal/api/server/client"
	"github.com/bz888/localchat/internal/api/server/handlers"
	"github.com/bz888/localchat/internal/config"
	"github.com/bz888/localchat/internal/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	echo            *echo.Echo
	addr            string
	inferenceClient *client.Client
	localLogger     *logger.Logger
}

func New(cfg *config.Config) (*Server, error) {
	inferenceClient, err := client.NewClient(client.ClientConfig{
		BaseURL:    cfg.Inference.BaseURL,
		ChatPath:   cfg.Inference.ChatPath,
		ModelsPath: cfg.Inference.ModelsPath,
		Timeout:    cfg.Inference.Timeout.Duration,
	})
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	handler := handlers.NewHandler(inferenceClient, cfg.Inference.Model, cfg.Inference.SystemPrompt)
	registerRoutes(e, handler)

	return &Server{
		echo:            e,
		addr:            cfg.Server.Addr,
		inferenceClient: inferenceClient,
		localLogger:     logger.NewLogger("Server"),
	}, nil
}

// Handler exposes the routes for in-process use and tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Listen binds the server address, so a busy port is reported before anything
// depends on the server. Run calls it when the caller has not.
func (s *Server) Listen() error {
	if s.echo.Listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrap(err, "error starting server")
	}
	s.echo.Listener = ln
	return nil
}

// Addr is the bound address once Listen has succeeded, the configured one
// before that.
func (s *Server) Addr() string {
	if s.echo.Listener != nil {
		return s.echo.Listener.Addr().String()
	}
	return s.addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.checkInferenceAvailability(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.localLogger.Info("Server started on http://" + s.Addr() + "/")
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrap(err, "error starting server")
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.localLogger.Info("Shutting down server")
	return s.echo.Shutdown(shutdownCtx)
}

// checkInferenceAvailability only warns: chat requests fall back to error text
// while the inference server is down, and it may come up later.
func (s *Server) checkInferenceAvailability(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.inferenceClient.Ping(pingCtx); err != nil {
		s.localLogger.Warn("Inference server not available:", err)
		return
	}
	s.localLogger.Info("Inference server reachable at", s.inferenceClient.GetChatURL())
}
