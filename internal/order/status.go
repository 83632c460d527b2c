package order

import "github.com/mshibata/ecshop/internal/models"

// forward lists the allowed status moves. SHIPPED and COMPLETED are terminal
// for forward progress, CANCELLED is terminal absolutely; cancellation is
// handled separately and is allowed from any non-terminal state.
var forward = map[models.OrderStatus]map[models.OrderStatus]bool{
	models.OrderStatusPending: {
		models.OrderStatusProcessing:  true,
		models.OrderStatusBackordered: true,
		models.OrderStatusShipped:     true,
		models.OrderStatusCompleted:   true,
	},
	models.OrderStatusProcessing: {
		models.OrderStatusBackordered: true,
		models.OrderStatusShipped:     true,
		models.OrderStatusCompleted:   true,
	},
	models.OrderStatusBackordered: {
		models.OrderStatusProcessing: true,
		models.OrderStatusShipped:    true,
		models.OrderStatusCompleted:  true,
	},
	models.OrderStatusShipped:   {},
	models.OrderStatusCompleted: {},
	models.OrderStatusCancelled: {},
}

func CanTransition(from, to models.OrderStatus) bool {
	return forward[from][to]
}

func IsTerminal(s models.OrderStatus) bool {
	return s == models.OrderStatusShipped ||
		s == models.OrderStatusCompleted ||
		s == models.OrderStatusCancelled
}
