package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sdiallo/tably/internal/mykafka"
	"github.com/sdiallo/tably/internal/service"
	"github.com/sdiallo/tably/internal/util"
)

type CatalogHandler struct {
	Catalog  *service.CatalogService
	Search   *service.SearchService
	Producer *mykafka.Producer
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

/* Restaurant */

func (h *CatalogHandler) GetRestaurant(c echo.Context) error {
	restaurant, err := h.Catalog.Restaurant(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, restaurant)
}

func (h *CatalogHandler) CreateRestaurant(c echo.Context) error {
	var req service.RestaurantParams
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
	}
	restaurant, err := h.Catalog.CreateRestaurant(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, restaurant)
}

func (h *CatalogHandler) UpdateSettings(c echo.Context) error {
	var req service.SettingsParams
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
	}
	restaurant, err := h.Catalog.UpdateSettings(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, restaurant)
}

/* Tables */

func (h *CatalogHandler) GetTables(c echo.Context) error {
	tables, err := h.Catalog.Tables(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, tables)
}

func (h *CatalogHandler) CreateTable(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
	}
	table, err := h.Catalog.CreateTable(c.Request().Context(), req.Name)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, table)
}

func (h *CatalogHandler) RenameTable(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
	}
	table, err := h.Catalog.RenameTable(c.Request().Context(), c.Param("id"), req.Name)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, table)
}

func (h *CatalogHandler) DeleteTable(c echo.Context) error {
	if err := h.Catalog.DeleteTable(c.Request().Context(), c.Param("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

/* Categories */

func (h *CatalogHandler) GetCategories(c echo.Context) error {
	categories, err := h.Catalog.Categories(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
	}
	category, err := h.Catalog.CreateCategory(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
	}
	category, err := h.Catalog.UpdateCategory(c.Request().Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory is the explicit cascade: the category and every product in
// it go away together.
func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	id := c.Param("id")
	if err := h.Catalog.DeleteCategoryCascade(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}

	publish(c, h.Producer, "product_events", id, map[string]any{
		"type":        "category_cascade_deleted",
		"category_id": id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) GetCategoryProducts(c echo.Context) error {
	products, err := h.Catalog.CategoryProducts(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

/* Products */

func (h *CatalogHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	products, total, err := h.Catalog.Products(c.Request().Context(), offset, limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": products,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var req service.ProductParams
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
	}

	product, err := h.Catalog.CreateProduct(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}

	h.Search.Index(c.Request().Context(), product)
	publish(c, h.Producer, "product_events", product.ID, map[string]any{
		"type":       "product_created",
		"product_id": product.ID,
		"name":       product.Name,
	})

	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	var req service.ProductParams
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
	}

	product, err := h.Catalog.UpdateProduct(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return errorResponse(c, err)
	}

	h.Search.Index(c.Request().Context(), product)
	publish(c, h.Producer, "product_events", product.ID, map[string]any{
		"type":       "product_updated",
		"product_id": product.ID,
		"name":       product.Name,
	})

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	id := c.Param("id")
	if err := h.Catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}

	h.Search.Remove(c.Request().Context(), id)
	publish(c, h.Producer, "product_events", id, map[string]any{
		"type":       "product_deleted",
		"product_id": id,
	})

	return c.NoContent(http.StatusNoContent)
}
