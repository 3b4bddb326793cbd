package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sdiallo/tably/internal/analysis"
	"github.com/sdiallo/tably/internal/service"
)

type StatsHandler struct {
	Stats    *service.StatsService
	Analyzer *analysis.Client
}

func (h *StatsHandler) Summary(c echo.Context) error {
	summary, err := h.Stats.SummaryStats(c.Request().Context(), periodParam(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *StatsHandler) Breakdown(c echo.Context) error {
	breakdown, err := h.Stats.CategoryBreakdown(c.Request().Context(), periodParam(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, breakdown)
}

func (h *StatsHandler) Orders(c echo.Context) error {
	orders, err := h.Stats.Orders(c.Request().Context(), periodParam(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *StatsHandler) OrderDetail(c echo.Context) error {
	details, err := h.Stats.OrderDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, details)
}

func (h *StatsHandler) Tables(c echo.Context) error {
	stats, err := h.Stats.TableStats(c.Request().Context(), periodParam(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) StatusCounts(c echo.Context) error {
	counts, err := h.Stats.OrderStatusCounts(c.Request().Context(), periodParam(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, counts)
}

// Analysis feeds the period's breakdown to the external summarizer and
// returns its free text untouched.
func (h *StatsHandler) Analysis(c echo.Context) error {
	period := periodParam(c)
	breakdown, err := h.Stats.CategoryBreakdown(c.Request().Context(), period)
	if err != nil {
		return errorResponse(c, err)
	}

	text, err := h.Analyzer.Summarize(c.Request().Context(), period, breakdown)
	if err != nil {
		return c.JSON(http.StatusBadGateway, Response{Status: "error", Message: err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"period":   period,
		"analysis": text,
	})
}
