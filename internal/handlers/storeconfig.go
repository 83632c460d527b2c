package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mshibata/ecshop/internal/models"
)

// StoreConfigHandler is the admin surface for shipping rates and payment fee
// rules. It only writes configuration; the pricing engine reads it through
// the rate catalog at order time.
type StoreConfigHandler struct {
	DB *gorm.DB
}

func (h *StoreConfigHandler) ListShippingRates(c echo.Context) error {
	var rates []models.ShippingRate
	if err := h.DB.Order("id").Find(&rates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rates)
}

type shippingRateRequest struct {
	CategoryID            *uint  `json:"category_id"`
	FeePerOrder           *int64 `json:"fee_per_order"`
	FreeShippingThreshold *int64 `json:"free_shipping_threshold"`
	Active                *bool  `json:"active"`
}

func (h *StoreConfigHandler) CreateShippingRate(c echo.Context) error {
	var req shippingRateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.FeePerOrder == nil || *req.FeePerOrder < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "fee_per_order must be >= 0")
	}
	if req.FreeShippingThreshold != nil && *req.FreeShippingThreshold < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "free_shipping_threshold must be >= 0")
	}

	rate := models.ShippingRate{
		CategoryID:            req.CategoryID,
		FeePerOrder:           *req.FeePerOrder,
		FreeShippingThreshold: req.FreeShippingThreshold,
		Active:                true,
	}
	if req.Active != nil {
		rate.Active = *req.Active
	}

	// One active rate per category: a new active rate retires the old one.
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if rate.Active {
			q := tx.Model(&models.ShippingRate{}).Where("active = ?", true)
			if rate.CategoryID == nil {
				q = q.Where("category_id IS NULL")
			} else {
				q = q.Where("category_id = ?", *rate.CategoryID)
			}
			if err := q.Update("active", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&rate).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, rate)
}

func (h *StoreConfigHandler) PatchShippingRate(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req shippingRateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var rate models.ShippingRate
	if err := h.DB.First(&rate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "rate not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.FeePerOrder != nil {
		if *req.FeePerOrder < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "fee_per_order must be >= 0")
		}
		rate.FeePerOrder = *req.FeePerOrder
	}
	if req.FreeShippingThreshold != nil {
		if *req.FreeShippingThreshold < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "free_shipping_threshold must be >= 0")
		}
		rate.FreeShippingThreshold = req.FreeShippingThreshold
	}
	if req.Active != nil {
		rate.Active = *req.Active
	}

	if err := h.DB.Save(&rate).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rate)
}

func (h *StoreConfigHandler) DeleteShippingRate(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.DB.Delete(&models.ShippingRate{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *StoreConfigHandler) ListPaymentFeeRules(c echo.Context) error {
	var rules []models.PaymentFeeRule
	if err := h.DB.Order("id").Find(&rules).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rules)
}

// UpsertPaymentFeeRule replaces the single fee rule for a payment method.
// The surcharge on new orders always follows the current rule; already
// placed orders keep the amount computed at placement time.
func (h *StoreConfigHandler) UpsertPaymentFeeRule(c echo.Context) error {
	var req struct {
		Method      string  `json:"method"`
		FeeModel    string  `json:"fee_model"`
		Rate        float64 `json:"rate"`
		FixedAmount int64   `json:"fixed_amount"`
		Bearer      string  `json:"bearer"`
		Active      *bool   `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !models.ValidPaymentMethod(req.Method) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown payment method")
	}
	if req.FeeModel != models.FeeModelPercentage && req.FeeModel != models.FeeModelFixed {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown fee model")
	}
	if req.Bearer != models.BearerCustomer && req.Bearer != models.BearerMerchant {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown bearer")
	}
	if req.Rate < 0 || req.FixedAmount < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "fee must be >= 0")
	}

	var rule models.PaymentFeeRule
	err := h.DB.Where("method = ?", req.Method).First(&rule).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	rule.Method = req.Method
	rule.FeeModel = req.FeeModel
	rule.Rate = req.Rate
	rule.FixedAmount = req.FixedAmount
	rule.Bearer = req.Bearer
	rule.Active = true
	if req.Active != nil {
		rule.Active = *req.Active
	}

	if err := h.DB.Save(&rule).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rule)
}
