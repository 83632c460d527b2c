package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mshibata/ecshop/internal/models"
	"github.com/mshibata/ecshop/internal/mykafka"
	"github.com/mshibata/ecshop/internal/order"
	"github.com/mshibata/ecshop/internal/util"
)

type OrderHandler struct {
	Orders    *order.Service
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// orderHTTPError maps the order service taxonomy onto transport codes.
func orderHTTPError(err error) error {
	switch {
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrProductUnavailable),
		errors.Is(err, order.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrAlreadyCancelled),
		errors.Is(err, order.ErrNotCancellable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrTransactionFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		PaymentMethod   string `json:"payment_method"`
		ShippingAddress string `json:"shipping_address"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	o, err := h.Orders.PlaceOrder(c.Request().Context(), userID, order.PlaceOrderInput{
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return orderHTTPError(err)
	}

	h.publish(c, map[string]any{
		"type":         "order_created",
		"orderID":      o.ID,
		"orderNumber":  o.OrderNumber,
		"userID":       o.UserID,
		"total_amount": o.TotalAmount,
	})

	return c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) MyOrders(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, err := h.Orders.ListOrders(c.Request().Context(), userID, "", limit, offset)
	if err != nil {
		return orderHTTPError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := h.Orders.GetOrder(c.Request().Context(), uint(id), userID)
	if err != nil {
		return orderHTTPError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	userID, err := GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil && c.Request().ContentLength > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	o, err := h.Orders.Cancel(c.Request().Context(), uint(id), userID, req.Reason)
	if err != nil {
		return orderHTTPError(err)
	}

	h.publish(c, map[string]any{
		"type":         "order_cancelled",
		"orderID":      o.ID,
		"orderNumber":  o.OrderNumber,
		"userID":       o.UserID,
		"cancelled_by": o.CancelledBy,
	})

	return c.JSON(http.StatusOK, o)
}

// ListOrders is the admin view over all orders, optionally filtered by status.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	status := models.OrderStatus(c.QueryParam("status"))

	orders, err := h.Orders.ListOrders(c.Request().Context(), 0, status, limit, offset)
	if err != nil {
		return orderHTTPError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) SetStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	o, err := h.Orders.SetStatus(c.Request().Context(), uint(id), models.OrderStatus(req.Status), req.Reason)
	if err != nil {
		return orderHTTPError(err)
	}

	h.publish(c, map[string]any{
		"type":        "order_status_changed",
		"orderID":     o.ID,
		"orderNumber": o.OrderNumber,
		"status":      o.Status,
	})

	return c.JSON(http.StatusOK, o)
}
