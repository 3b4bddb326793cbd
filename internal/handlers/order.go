package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sdiallo/tably/internal/mykafka"
	"github.com/sdiallo/tably/internal/service"
)

type OrderHandler struct {
	Orders   *service.OrderService
	Producer *mykafka.Producer
}

// Launch accepts a customer or staff order. Re-submitting creates a new
// order; the client is expected to disable its submit control until the
// response lands.
func (h *OrderHandler) Launch(c echo.Context) error {
	var req service.LaunchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
	}

	order, err := h.Orders.Launch(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}

	publish(c, h.Producer, "order_events", order.ID, map[string]any{
		"type":     "order_launched",
		"order_id": order.ID,
		"table_id": order.TableID,
		"total":    order.Total,
	})

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Status(c echo.Context) error {
	status, err := h.Orders.GetStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"order_id": c.Param("id"),
		"status":   status,
	})
}

func (h *OrderHandler) Validate(c echo.Context) error {
	var req struct {
		Items []service.RevisedItem `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: err.Error()})
	}

	order, err := h.Orders.Validate(c.Request().Context(), c.Param("id"), req.Items)
	if err != nil {
		return errorResponse(c, err)
	}

	publish(c, h.Producer, "order_events", order.ID, map[string]any{
		"type":     "order_completed",
		"order_id": order.ID,
		"total":    order.Total,
	})

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	order, err := h.Orders.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	publish(c, h.Producer, "order_events", order.ID, map[string]any{
		"type":     "order_canceled",
		"order_id": order.ID,
	})

	return c.JSON(http.StatusOK, order)
}
