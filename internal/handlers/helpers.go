package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sdiallo/tably/internal/boundary"
	"github.com/sdiallo/tably/internal/ledger"
	"github.com/sdiallo/tably/internal/mykafka"
	"github.com/sdiallo/tably/internal/service"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorResponse(c echo.Context, err error) error {
	return c.JSON(statusFor(err), Response{
		Status:  "error",
		Message: err.Error(),
	})
}

// statusFor maps the domain error taxonomy onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, service.ErrNoRestaurant):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientStock),
		errors.Is(err, ledger.ErrStockViolation),
		errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrOutOfRange),
		errors.Is(err, service.ErrProtectedTable):
		return http.StatusForbidden
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, boundary.ErrInvalidPeriod):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publish is fire-and-forget: a broker problem must never fail the request
// that already committed.
func publish(c echo.Context, producer *mykafka.Producer, topic, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 5*time.Second)
	defer cancel()
	if err := producer.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func periodParam(c echo.Context) boundary.Period {
	if p := c.QueryParam("period"); p != "" {
		return boundary.Period(p)
	}
	return boundary.PeriodAllTime
}
