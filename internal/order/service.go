package order

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mshibata/ecshop/internal/logging"
	"github.com/mshibata/ecshop/internal/models"
	"github.com/mshibata/ecshop/internal/pricing"
)

// Service owns order placement and the order lifecycle. All mutations run in
// a single gorm transaction; correctness of the stock check-and-decrement
// relies on the store's isolation, not on in-process locks.
type Service struct {
	DB *gorm.DB
}

type PlaceOrderInput struct {
	PaymentMethod   string
	ShippingAddress string
}

// PlaceOrder converts the user's persisted cart into an order: validates the
// cart, prices it, creates the order with per-line snapshots, decrements
// stock and clears the cart, all in one transaction. An order-number
// collision is retried once with a fresh number.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, in PlaceOrderInput) (*models.Order, error) {
	if !models.ValidPaymentMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, in.PaymentMethod)
	}

	o, err := s.placeOnce(ctx, userID, in)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		logging.FromContext(ctx).Warn("order number collision, retrying", "user_id", userID)
		o, err = s.placeOnce(ctx, userID, in)
	}
	if err != nil {
		if isDomainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return o, nil
}

func (s *Service) placeOnce(ctx context.Context, userID uint, in PlaceOrderInput) (*models.Order, error) {
	var created models.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("user_id = ?", userID).Order("id").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		ids := make([]uint, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ProductID)
		}
		var products []models.Product
		if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
			return err
		}
		byID := make(map[uint]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		lines := make([]pricing.CartLine, 0, len(items))
		var catIDs []uint
		seenCat := make(map[uint]bool)
		for _, it := range items {
			p, ok := byID[it.ProductID]
			if !ok || !p.Active {
				return fmt.Errorf("%w: product %d", ErrProductUnavailable, it.ProductID)
			}
			if it.Quantity == 0 {
				return fmt.Errorf("%w: product %d: quantity must be > 0", ErrValidation, it.ProductID)
			}
			if p.Stock < int64(it.Quantity) {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
			}
			lines = append(lines, pricing.CartLine{
				ProductID:  p.ID,
				Quantity:   it.Quantity,
				UnitPrice:  p.Price,
				CategoryID: p.CategoryID,
			})
			if p.CategoryID != nil && !seenCat[*p.CategoryID] {
				seenCat[*p.CategoryID] = true
				catIDs = append(catIDs, *p.CategoryID)
			}
		}

		catalog := &pricing.Catalog{DB: tx}
		rates, err := catalog.RatesForCategories(ctx, catIDs)
		if err != nil {
			return err
		}
		defaultRate, err := catalog.DefaultRate(ctx)
		if err != nil {
			return err
		}
		rule, err := catalog.SurchargeRule(ctx, in.PaymentMethod)
		if err != nil {
			return err
		}

		res, err := pricing.Price(lines, rates, defaultRate, rule)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if len(res.FallbackCategories) > 0 {
			logging.FromContext(ctx).Warn("no shipping rate configured, fallback fee applied",
				"user_id", userID, "categories", res.FallbackCategories)
		}

		o := models.Order{
			OrderNumber:     NewOrderNumber(),
			UserID:          userID,
			Status:          models.OrderStatusPending,
			PaymentMethod:   in.PaymentMethod,
			ShippingAddress: in.ShippingAddress,
			SubtotalAmount:  res.SubtotalAmount,
			ShippingFee:     res.ShippingFee,
			SurchargeAmount: res.SurchargeAmount,
			TotalAmount:     res.TotalAmount,
		}
		if err := tx.Create(&o).Error; err != nil {
			return err
		}

		for _, it := range items {
			p := byID[it.ProductID]
			line := models.OrderItem{
				OrderID:             o.ID,
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            it.Quantity,
				LineTotal:           int64(it.Quantity) * p.Price,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			o.Items = append(o.Items, line)

			// Conditional decrement: a concurrent placement that got here
			// first makes RowsAffected 0 and rolls this whole order back.
			dec := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", p.ID, it.Quantity).
				Update("stock", gorm.Expr("stock - ?", it.Quantity))
			if dec.Error != nil {
				return dec.Error
			}
			if dec.RowsAffected == 0 {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetOrder loads one order with its lines. When requesterID is non-zero the
// order must belong to that user.
func (s *Service) GetOrder(ctx context.Context, orderID, requesterID uint) (*models.Order, error) {
	var o models.Order
	err := s.DB.WithContext(ctx).Preload("Items").First(&o, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	if requesterID != 0 && o.UserID != requesterID {
		return nil, fmt.Errorf("%w: order %s", ErrForbidden, o.OrderNumber)
	}
	return &o, nil
}

// ListOrders returns a user's orders newest first. userID 0 lists all orders
// (admin); status narrows the result when non-empty.
func (s *Service) ListOrders(ctx context.Context, userID uint, status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		if !models.KnownStatus(status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		q = q.Where("status = ?", status)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return orders, nil
}
