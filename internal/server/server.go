package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"TradeRobot/internal/model"
)

// Evaluator is the part of the scheduler the API needs.
type Evaluator interface {
	Last() *model.Report
	RunCycle(ctx context.Context) (*model.Report, error)
}

// ChartWriter renders a report as PNG.
type ChartWriter interface {
	WriteTo(w io.Writer, report *model.Report) (int64, error)
}

// Server wraps the Echo HTTP server.
type Server struct {
	echo *echo.Echo
	addr string
}

// New builds the server and registers all routes. chart may be nil, in which
// case the chart endpoint answers 404.
func New(addr string, eval Evaluator, chart ChartWriter, gatherer prometheus.Gatherer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogging())

	h := &handler{eval: eval, chart: chart}
	e.GET("/healthz", h.health)
	api := e.Group("/api/v1")
	api.GET("/decision", h.decision)
	api.GET("/chart.png", h.chartPNG)
	api.POST("/refresh", h.refresh)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return &Server{echo: e, addr: addr}
}

// Start listens in the background.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.addr).Msg("http server listening")
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
		}
	}()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func requestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			log.Debug().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("http request")
			return nil
		}
	}
}
