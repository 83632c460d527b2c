package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mshibata/ecshop/internal/models"
)

// Cancel is the customer-initiated cancellation. Only the order's owner may
// cancel; SHIPPED and COMPLETED orders are past the point of no return. On
// success the status flips to CANCELLED and every line's quantity goes back
// onto its product's stock, in the same transaction.
func (s *Service) Cancel(ctx context.Context, orderID, userID uint, reason string) (*models.Order, error) {
	var out models.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return fmt.Errorf("%w: order %s belongs to another customer", ErrForbidden, o.OrderNumber)
		}
		if err := cancelTx(tx, o, models.CancelledByCustomer, reason); err != nil {
			return err
		}
		out = *o
		return nil
	})
	if err != nil {
		if isDomainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return &out, nil
}

// SetStatus is the admin transition. Any move allowed by the status machine
// is accepted; moving to CANCELLED additionally stamps the cancellation
// fields and restores stock. No other status touches stock.
func (s *Service) SetStatus(ctx context.Context, orderID uint, newStatus models.OrderStatus, reason string) (*models.Order, error) {
	if !models.KnownStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	var out models.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := loadOrder(tx, orderID)
		if err != nil {
			return err
		}

		if newStatus == models.OrderStatusCancelled {
			if err := cancelTx(tx, o, models.CancelledByAdmin, reason); err != nil {
				return err
			}
			out = *o
			return nil
		}

		if !CanTransition(o.Status, newStatus) {
			if o.Status == models.OrderStatusCancelled {
				return fmt.Errorf("%w: order %s", ErrAlreadyCancelled, o.OrderNumber)
			}
			return fmt.Errorf("%w: cannot move order from %s to %s", ErrValidation, o.Status, newStatus)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", o.ID, o.Status).
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: concurrent status change on order %s", ErrTransactionFailed, o.OrderNumber)
		}

		o.Status = newStatus
		out = *o
		return nil
	})
	if err != nil {
		if isDomainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return &out, nil
}

// loadOrder reads the order with its lines. No row lock is taken; the status
// updates below are guarded on the status read here, which is what keeps
// concurrent transitions safe.
func loadOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var o models.Order
	err := tx.Preload("Items").First(&o, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// cancelTx flips an order to CANCELLED and restores stock. The status update
// is guarded on the previously read status so a second cancellation, or a
// concurrent forward transition, leaves stock untouched.
func cancelTx(tx *gorm.DB, o *models.Order, by, reason string) error {
	switch o.Status {
	case models.OrderStatusCancelled:
		return fmt.Errorf("%w: order %s", ErrAlreadyCancelled, o.OrderNumber)
	case models.OrderStatusShipped, models.OrderStatusCompleted:
		return fmt.Errorf("%w: order %s is %s", ErrNotCancellable, o.OrderNumber, o.Status)
	}

	now := time.Now().UTC()
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", o.ID, o.Status).
		Updates(map[string]any{
			"status":        models.OrderStatusCancelled,
			"cancelled_at":  now,
			"cancelled_by":  by,
			"cancel_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: order %s", ErrAlreadyCancelled, o.OrderNumber)
	}

	for _, it := range o.Items {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", it.ProductID).
			Update("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
			return err
		}
	}

	o.Status = models.OrderStatusCancelled
	o.CancelledAt = &now
	o.CancelledBy = by
	o.CancelReason = reason
	return nil
}
