package pricing

import (
	"fmt"
	"math"
	"sort"

	"github.com/mshibata/ecshop/internal/models"
)

// FallbackFee is charged when neither a category rate nor a default rate is
// configured. Checkout availability wins over configuration completeness, so
// a missing rate never blocks an order; it is reported on the Result instead.
const FallbackFee int64 = 500

// defaultGroup keys cart lines without a category. Category ids start at 1.
const defaultGroup uint = 0

// CartLine is one product pending purchase. It exists only while the order is
// being placed; the persisted counterpart is models.OrderItem.
type CartLine struct {
	ProductID  uint
	Quantity   uint
	UnitPrice  int64
	CategoryID *uint
}

// Result is the full pricing breakdown for a cart. All amounts are yen.
type Result struct {
	SubtotalAmount  int64
	ShippingFee     int64
	SurchargeAmount int64
	TotalAmount     int64

	// MerchantBorneFee is the surcharge absorbed by the merchant when the
	// fee rule's bearer is "merchant". It is never part of TotalAmount.
	MerchantBorneFee int64

	// FeeByCategory holds the shipping fee per category group, keyed by
	// category id (0 for lines without a category).
	FeeByCategory map[uint]int64

	// FallbackCategories lists the groups priced with FallbackFee because
	// no category rate and no default rate was configured.
	FallbackCategories []uint
}

// Price computes subtotal, per-category shipping and the payment surcharge for
// a cart. It is a pure function: rates and the fee rule are snapshots the
// caller already loaded. Free-shipping thresholds are evaluated per category
// group against that group's own subtotal; there is no whole-cart rule.
// Malformed input is a caller bug and comes back as an error, never a partial
// result.
func Price(lines []CartLine, rates map[uint]models.ShippingRate, defaultRate *models.ShippingRate, rule *models.PaymentFeeRule) (*Result, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("pricing: no cart lines")
	}

	groupSubtotal := make(map[uint]int64)
	var subtotal int64
	for _, l := range lines {
		if l.Quantity == 0 {
			return nil, fmt.Errorf("pricing: product %d: quantity must be > 0", l.ProductID)
		}
		if l.UnitPrice < 0 {
			return nil, fmt.Errorf("pricing: product %d: unit price must be >= 0", l.ProductID)
		}
		key := defaultGroup
		if l.CategoryID != nil {
			key = *l.CategoryID
		}
		lineTotal := int64(l.Quantity) * l.UnitPrice
		groupSubtotal[key] += lineTotal
		subtotal += lineTotal
	}

	res := &Result{
		SubtotalAmount: subtotal,
		FeeByCategory:  make(map[uint]int64, len(groupSubtotal)),
	}

	for key, gs := range groupSubtotal {
		fee, threshold, fromFallback := resolveRate(key, rates, defaultRate)
		if fromFallback {
			res.FallbackCategories = append(res.FallbackCategories, key)
		}
		if threshold != nil && gs >= *threshold {
			fee = 0
		}
		res.FeeByCategory[key] = fee
		res.ShippingFee += fee
	}
	sort.Slice(res.FallbackCategories, func(i, j int) bool {
		return res.FallbackCategories[i] < res.FallbackCategories[j]
	})

	if rule != nil {
		fee, err := surcharge(subtotal, rule)
		if err != nil {
			return nil, err
		}
		switch rule.Bearer {
		case models.BearerCustomer:
			res.SurchargeAmount = fee
		case models.BearerMerchant:
			res.MerchantBorneFee = fee
		default:
			return nil, fmt.Errorf("pricing: unknown fee bearer %q", rule.Bearer)
		}
	}

	res.TotalAmount = res.SubtotalAmount + res.ShippingFee + res.SurchargeAmount
	return res, nil
}

func resolveRate(key uint, rates map[uint]models.ShippingRate, defaultRate *models.ShippingRate) (fee int64, threshold *int64, fromFallback bool) {
	if r, ok := rates[key]; ok && r.Active {
		return r.FeePerOrder, r.FreeShippingThreshold, false
	}
	if defaultRate != nil {
		return defaultRate.FeePerOrder, defaultRate.FreeShippingThreshold, false
	}
	return FallbackFee, nil, true
}

func surcharge(subtotal int64, rule *models.PaymentFeeRule) (int64, error) {
	switch rule.FeeModel {
	case models.FeeModelPercentage:
		// round half up to whole yen
		return int64(math.Floor(float64(subtotal)*rule.Rate/100 + 0.5)), nil
	case models.FeeModelFixed:
		return rule.FixedAmount, nil
	default:
		return 0, fmt.Errorf("pricing: unknown fee model %q", rule.FeeModel)
	}
}
