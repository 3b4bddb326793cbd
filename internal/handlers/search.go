package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sdiallo/tably/internal/service"
	"github.com/sdiallo/tably/internal/util"
)

type SearchHandler struct {
	Searches *service.SearchService
}

func (h *SearchHandler) Search(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: "q is required"})
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, hits, err := h.Searches.Search(c.Request().Context(), query, from, limit)
	if err != nil {
		return c.JSON(http.StatusBadGateway, Response{Status: "error", Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": hits,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}
