package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/mshibata/ecshop/internal/models"
)

func TestCreateShippingRateRetiresPrevious(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{"fee_per_order": 400}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/shipping-rates", body)
	require.NoError(t, env.Config.CreateShippingRate(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body = map[string]any{"fee_per_order": 500, "free_shipping_threshold": 8000}
	rec, c = env.doJSONRequest(http.MethodPost, "/api/v1/admin/shipping-rates", body)
	require.NoError(t, env.Config.CreateShippingRate(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var active []models.ShippingRate
	require.NoError(t, env.DB.Where("active = ? AND category_id IS NULL", true).Find(&active).Error)
	require.Len(t, active, 1)
	require.Equal(t, int64(500), active[0].FeePerOrder)
	require.NotNil(t, active[0].FreeShippingThreshold)
	require.Equal(t, int64(8000), *active[0].FreeShippingThreshold)
}

func TestCreateInactiveShippingRateKeepsCurrent(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{"fee_per_order": 400}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/shipping-rates", body)
	require.NoError(t, env.Config.CreateShippingRate(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	// a draft rate must not retire the live one and must come back inactive
	body = map[string]any{"fee_per_order": 700, "active": false}
	rec, c = env.doJSONRequest(http.MethodPost, "/api/v1/admin/shipping-rates", body)
	require.NoError(t, env.Config.CreateShippingRate(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var draft models.ShippingRate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))
	require.False(t, draft.Active)

	var active []models.ShippingRate
	require.NoError(t, env.DB.Where("active = ? AND category_id IS NULL", true).Find(&active).Error)
	require.Len(t, active, 1)
	require.Equal(t, int64(400), active[0].FeePerOrder)

	var stored models.ShippingRate
	require.NoError(t, env.DB.First(&stored, draft.ID).Error)
	require.False(t, stored.Active)
}

func TestCreateShippingRateRejectsNegativeFee(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{"fee_per_order": -1}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/shipping-rates", body)

	err := env.Config.CreateShippingRate(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestUpsertPaymentFeeRule(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"method": models.PaymentMethodCard, "fee_model": models.FeeModelPercentage,
		"rate": 3.6, "bearer": models.BearerCustomer,
	}
	rec, c := env.doJSONRequest(http.MethodPut, "/api/v1/admin/payment-fees", body)
	require.NoError(t, env.Config.UpsertPaymentFeeRule(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// a second upsert for the same method updates in place
	body["fee_model"] = models.FeeModelFixed
	body["fixed_amount"] = 200
	rec, c = env.doJSONRequest(http.MethodPut, "/api/v1/admin/payment-fees", body)
	require.NoError(t, env.Config.UpsertPaymentFeeRule(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var rules []models.PaymentFeeRule
	require.NoError(t, env.DB.Where("method = ?", models.PaymentMethodCard).Find(&rules).Error)
	require.Len(t, rules, 1)
	require.Equal(t, models.FeeModelFixed, rules[0].FeeModel)
	require.Equal(t, int64(200), rules[0].FixedAmount)

	var resp models.PaymentFeeRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, rules[0].ID, resp.ID)
}

func TestUpsertPaymentFeeRuleRejectsUnknownMethod(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{"method": "crypto", "fee_model": models.FeeModelFixed, "bearer": models.BearerCustomer}
	_, c := env.doJSONRequest(http.MethodPut, "/api/v1/admin/payment-fees", body)

	err := env.Config.UpsertPaymentFeeRule(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}
