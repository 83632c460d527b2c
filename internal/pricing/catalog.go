package pricing

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mshibata/ecshop/internal/models"
)

// Catalog reads the active rate configuration. It is handed the transaction
// handle of whoever prices a cart, so the snapshot is consistent with the
// rest of the order placement.
type Catalog struct {
	DB *gorm.DB
}

// RatesForCategories returns the active category-specific rates for the given
// category ids. Categories without an active rate are simply absent from the
// map; the engine falls back to the default rate for them.
func (c *Catalog) RatesForCategories(ctx context.Context, ids []uint) (map[uint]models.ShippingRate, error) {
	out := make(map[uint]models.ShippingRate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.ShippingRate
	if err := c.DB.WithContext(ctx).
		Where("category_id IN ? AND active = ?", ids, true).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.CategoryID != nil {
			out[*r.CategoryID] = r
		}
	}
	return out, nil
}

// DefaultRate returns the active store-wide rate, or nil when none is
// configured.
func (c *Catalog) DefaultRate(ctx context.Context) (*models.ShippingRate, error) {
	var r models.ShippingRate
	err := c.DB.WithContext(ctx).
		Where("category_id IS NULL AND active = ?", true).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SurchargeRule returns the active fee rule for a payment method, or nil when
// the method carries no surcharge.
func (c *Catalog) SurchargeRule(ctx context.Context, method string) (*models.PaymentFeeRule, error) {
	var r models.PaymentFeeRule
	err := c.DB.WithContext(ctx).
		Where("method = ? AND active = ?", method, true).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
