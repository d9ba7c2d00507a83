package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"TradeRobot/internal/model"
	"TradeRobot/internal/scheduler"
)

// DecisionResponse is the JSON shape of the latest evaluation.
type DecisionResponse struct {
	Symbol      string    `json:"symbol"`
	Price       float64   `json:"price"`
	Trend       string    `json:"trend"`
	Baseline    float64   `json:"baseline"`
	Decision    string    `json:"decision"`
	Color       string    `json:"color"`
	Bars        int       `json:"bars"`
	GeneratedAt time.Time `json:"generated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(r *model.Report) DecisionResponse {
	ev := r.Evaluation
	return DecisionResponse{
		Symbol:      r.Symbol,
		Price:       ev.Price,
		Trend:       string(ev.Trend),
		Baseline:    ev.Baseline,
		Decision:    string(ev.Decision),
		Color:       ev.Decision.Color(),
		Bars:        len(r.Bars),
		GeneratedAt: r.GeneratedAt,
	}
}

type handler struct {
	eval  Evaluator
	chart ChartWriter
}

var errNoReport = errorResponse{Error: "no evaluation has completed yet"}

func (h *handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"has_report":  h.eval.Last() != nil,
		"server_time": time.Now().UTC(),
	})
}

func (h *handler) decision(c echo.Context) error {
	report := h.eval.Last()
	if report == nil {
		return c.JSON(http.StatusServiceUnavailable, errNoReport)
	}
	return c.JSON(http.StatusOK, toResponse(report))
}

func (h *handler) chartPNG(c echo.Context) error {
	if h.chart == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "chart rendering disabled"})
	}
	report := h.eval.Last()
	if report == nil {
		return c.JSON(http.StatusServiceUnavailable, errNoReport)
	}
	var buf bytes.Buffer
	if _, err := h.chart.WriteTo(&buf, report); err != nil {
		log.Error().Err(err).Msg("render chart")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "chart rendering failed"})
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// refresh runs a cycle synchronously. It is detached from the request so a
// disconnecting client does not abort a cycle halfway.
func (h *handler) refresh(c echo.Context) error {
	report, err := h.eval.RunCycle(context.WithoutCancel(c.Request().Context()))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, toResponse(report))
	case errors.Is(err, scheduler.ErrCycleInProgress):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
}
