package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const maxBodyBytes = 1 << 20

// EventHandler is the Lambda-shaped webhook handler the server adapts.
type EventHandler interface {
	Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// Server runs the webhooks as a long-lived HTTP service.
type Server struct {
	echo    *echo.Echo
	handler EventHandler
	port    int
	logger  *slog.Logger
}

func New(h EventHandler, port int, logger *slog.Logger) (*Server, error) {
	if h == nil {
		return nil, errors.New("server: handler must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	s := &Server{echo: e, handler: h, port: port, logger: logger}
	e.Any("/", s.proxy)
	e.Any("/*", s.proxy)
	return s, nil
}

// Start blocks serving on the configured port until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP exposes the router, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) proxy(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	headers := make(map[string]string, len(req.Header))
	for k := range req.Header {
		headers[k] = req.Header.Get(k)
	}
	query := make(map[string]string, len(req.URL.Query()))
	for k := range req.URL.Query() {
		query[k] = req.URL.Query().Get(k)
	}

	resp, err := s.handler.Handle(req.Context(), events.APIGatewayProxyRequest{
		HTTPMethod:            req.Method,
		Path:                  req.URL.Path,
		Headers:               headers,
		QueryStringParameters: query,
		Body:                  string(body),
	})
	if err != nil {
		s.logger.Error("handler failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	for k, v := range resp.Headers {
		c.Response().Header().Set(k, v)
	}
	if resp.Body == "" {
		return c.NoContent(resp.StatusCode)
	}
	return c.Blob(resp.StatusCode, resp.Headers["Content-Type"], []byte(resp.Body))
}
