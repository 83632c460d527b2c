package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/mshibata/ecshop/internal/models"
)

func seedCheckout(t *testing.T, env *testEnv, user models.User) models.Product {
	t.Helper()

	p := models.Product{Name: "teapot", Description: "cast iron", Price: 3500, Stock: 4, Active: true}
	require.NoError(t, env.DB.Create(&p).Error)
	require.NoError(t, env.DB.Create(&models.ShippingRate{FeePerOrder: 300, Active: true}).Error)
	require.NoError(t, env.DB.Create(&models.PaymentFeeRule{
		Method: models.PaymentMethodCashOnDelivery, FeeModel: models.FeeModelFixed,
		FixedAmount: 330, Bearer: models.BearerCustomer, Active: true,
	}).Error)
	require.NoError(t, env.DB.Create(&models.CartItem{UserID: user.ID, ProductID: p.ID, Quantity: 2}).Error)
	return p
}

func TestPlaceOrderHandler(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "user")
	p := seedCheckout(t, env, user)

	body := map[string]string{
		"payment_method":   models.PaymentMethodCashOnDelivery,
		"shipping_address": "4-5-6 Minato, Tokyo",
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", body, env.accessCookie(user))
	require.NoError(t, env.Orders.PlaceOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, models.OrderStatusPending, resp.Status)
	require.Equal(t, int64(7000), resp.SubtotalAmount)
	require.Equal(t, int64(300), resp.ShippingFee)
	require.Equal(t, int64(330), resp.SurchargeAmount)
	require.Equal(t, int64(7630), resp.TotalAmount)
	require.NotEmpty(t, resp.OrderNumber)

	var fresh models.Product
	require.NoError(t, env.DB.First(&fresh, p.ID).Error)
	require.Equal(t, int64(2), fresh.Stock)
}

func TestPlaceOrderHandlerEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("bob", "user")

	body := map[string]string{"payment_method": models.PaymentMethodCard}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", body, env.accessCookie(user))

	err := env.Orders.PlaceOrder(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCancelOrderHandlerForbidden(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser("carol", "user")
	intruder := env.createUser("mallory", "user")
	p := seedCheckout(t, env, owner)

	body := map[string]string{"payment_method": models.PaymentMethodCashOnDelivery}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", body, env.accessCookie(owner))
	require.NoError(t, env.Orders.PlaceOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var placed models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/orders/1/cancel", nil, env.accessCookie(intruder))
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := env.Orders.CancelOrder(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)

	// stock untouched by the failed attempt
	var fresh models.Product
	require.NoError(t, env.DB.First(&fresh, p.ID).Error)
	require.Equal(t, int64(2), fresh.Stock)
}

func TestCancelOrderHandler(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("dave", "user")
	p := seedCheckout(t, env, user)

	body := map[string]string{"payment_method": models.PaymentMethodCashOnDelivery}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", body, env.accessCookie(user))
	require.NoError(t, env.Orders.PlaceOrder(c))

	var placed models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	rec, c = env.doJSONRequest(http.MethodPost, "/api/v1/orders/1/cancel",
		map[string]string{"reason": "ordered twice"}, env.accessCookie(user))
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Orders.CancelOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	require.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, models.CancelledByCustomer, cancelled.CancelledBy)

	var fresh models.Product
	require.NoError(t, env.DB.First(&fresh, p.ID).Error)
	require.Equal(t, int64(4), fresh.Stock)
}

func TestSetStatusHandler(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("erin", "user")
	seedCheckout(t, env, user)

	body := map[string]string{"payment_method": models.PaymentMethodCashOnDelivery}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", body, env.accessCookie(user))
	require.NoError(t, env.Orders.PlaceOrder(c))

	rec, c = env.doJSONRequest(http.MethodPatch, "/api/v1/admin/orders/1/status",
		map[string]string{"status": string(models.OrderStatusProcessing)})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Orders.SetStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, models.OrderStatusProcessing, updated.Status)

	// unknown literal is rejected before any side effect
	_, c = env.doJSONRequest(http.MethodPatch, "/api/v1/admin/orders/1/status",
		map[string]string{"status": "LOST"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := env.Orders.SetStatus(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestMyOrdersHandler(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("frank", "user")
	seedCheckout(t, env, user)

	body := map[string]string{"payment_method": models.PaymentMethodCashOnDelivery}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", body, env.accessCookie(user))
	require.NoError(t, env.Orders.PlaceOrder(c))

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/orders", nil, env.accessCookie(user))
	require.NoError(t, env.Orders.MyOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	require.Equal(t, user.ID, orders[0].UserID)
	require.Len(t, orders[0].Items, 1)
}
