package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mshibata/ecshop/internal/models"
)

func placeTestOrder(t *testing.T, db *gorm.DB, svc *Service, userID uint, p models.Product, qty uint) *models.Order {
	t.Helper()
	addToCart(t, db, userID, p.ID, qty)
	o, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderInput{
		PaymentMethod: models.PaymentMethodCard,
	})
	require.NoError(t, err)
	return o
}

func productStock(t *testing.T, db *gorm.DB, id uint) int64 {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Stock
}

func TestCancelRestoresStockOnce(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	p := seedProduct(t, db, "plates", 1200, 10, nil)
	o := placeTestOrder(t, db, svc, 1, p, 4)
	require.Equal(t, int64(6), productStock(t, db, p.ID))

	cancelled, err := svc.Cancel(context.Background(), o.ID, 1, "changed my mind")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, models.CancelledByCustomer, cancelled.CancelledBy)
	require.Equal(t, "changed my mind", cancelled.CancelReason)
	require.NotNil(t, cancelled.CancelledAt)
	require.Equal(t, int64(10), productStock(t, db, p.ID))

	// second attempt fails cleanly and does not double-restore
	_, err = svc.Cancel(context.Background(), o.ID, 1, "again")
	require.ErrorIs(t, err, ErrAlreadyCancelled)
	require.Equal(t, int64(10), productStock(t, db, p.ID))
}

func TestCancelForbiddenForOtherCustomer(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	p := seedProduct(t, db, "mug", 900, 5, nil)
	o := placeTestOrder(t, db, svc, 1, p, 2)

	_, err := svc.Cancel(context.Background(), o.ID, 2, "")
	require.ErrorIs(t, err, ErrForbidden)

	// no state change
	require.Equal(t, int64(3), productStock(t, db, p.ID))
	fresh, err := svc.GetOrder(context.Background(), o.ID, 1)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPending, fresh.Status)
}

func TestCancelTerminalStates(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	p := seedProduct(t, db, "lamp", 3000, 10, nil)

	for _, terminal := range []models.OrderStatus{models.OrderStatusShipped, models.OrderStatusCompleted} {
		o := placeTestOrder(t, db, svc, 1, p, 1)
		_, err := svc.SetStatus(context.Background(), o.ID, terminal, "")
		require.NoError(t, err)

		_, err = svc.Cancel(context.Background(), o.ID, 1, "")
		require.ErrorIs(t, err, ErrNotCancellable)
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	_, err := svc.Cancel(context.Background(), 12345, 1, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdminSetStatusForwardTransitions(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	p := seedProduct(t, db, "chair", 7000, 10, nil)
	o := placeTestOrder(t, db, svc, 1, p, 1)

	for _, next := range []models.OrderStatus{
		models.OrderStatusProcessing,
		models.OrderStatusBackordered,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
	} {
		updated, err := svc.SetStatus(context.Background(), o.ID, next, "")
		require.NoError(t, err)
		require.Equal(t, next, updated.Status)
	}

	// SHIPPED is terminal for forward progress
	_, err := svc.SetStatus(context.Background(), o.ID, models.OrderStatusCompleted, "")
	require.ErrorIs(t, err, ErrValidation)

	// status changes other than cancellation never touch stock
	require.Equal(t, int64(9), productStock(t, db, p.ID))
}

func TestAdminSetStatusUnknownLiteral(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	p := seedProduct(t, db, "desk", 15000, 2, nil)
	o := placeTestOrder(t, db, svc, 1, p, 1)

	_, err := svc.SetStatus(context.Background(), o.ID, "REFUNDED", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestAdminCancelRestoresStockAndStampsActor(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	p := seedProduct(t, db, "shelf", 5000, 8, nil)
	o := placeTestOrder(t, db, svc, 1, p, 3)
	require.Equal(t, int64(5), productStock(t, db, p.ID))

	cancelled, err := svc.SetStatus(context.Background(), o.ID, models.OrderStatusCancelled, "fraud check failed")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, models.CancelledByAdmin, cancelled.CancelledBy)
	require.Equal(t, "fraud check failed", cancelled.CancelReason)
	require.Equal(t, int64(8), productStock(t, db, p.ID))

	// repeat cancellation from the admin path is rejected too
	_, err = svc.SetStatus(context.Background(), o.ID, models.OrderStatusCancelled, "")
	require.ErrorIs(t, err, ErrAlreadyCancelled)
	require.Equal(t, int64(8), productStock(t, db, p.ID))

	// and no forward transition escapes CANCELLED
	_, err = svc.SetStatus(context.Background(), o.ID, models.OrderStatusProcessing, "")
	require.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestTransitionTable(t *testing.T) {
	require.True(t, CanTransition(models.OrderStatusPending, models.OrderStatusProcessing))
	require.True(t, CanTransition(models.OrderStatusBackordered, models.OrderStatusShipped))
	require.False(t, CanTransition(models.OrderStatusShipped, models.OrderStatusProcessing))
	require.False(t, CanTransition(models.OrderStatusCompleted, models.OrderStatusShipped))
	require.False(t, CanTransition(models.OrderStatusCancelled, models.OrderStatusPending))

	require.False(t, IsTerminal(models.OrderStatusPending))
	require.False(t, IsTerminal(models.OrderStatusBackordered))
	require.True(t, IsTerminal(models.OrderStatusShipped))
	require.True(t, IsTerminal(models.OrderStatusCompleted))
	require.True(t, IsTerminal(models.OrderStatusCancelled))
}
