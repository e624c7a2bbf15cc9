package model

// orderTransitions is the immutable transition table. It is built once at
// package initialization and only read afterwards; terminal statuses map to
// an empty set.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:          {OrderStatusDesignPending, OrderStatusPaymentPending, OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusDesignPending:    {OrderStatusDesignApproved, OrderStatusDesignRejected, OrderStatusCancelled},
	OrderStatusDesignApproved:   {OrderStatusPaymentPending, OrderStatusProcessing},
	OrderStatusDesignRejected:   {OrderStatusDesignPending, OrderStatusCancelled},
	OrderStatusPaymentPending:   {OrderStatusPaymentConfirmed, OrderStatusCancelled},
	OrderStatusPaymentConfirmed: {OrderStatusProcessing},
	OrderStatusProcessing:       {OrderStatusProduction, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusProduction:       {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:          {OrderStatusDelivered},
	OrderStatusDelivered:        {OrderStatusRefunded},
	OrderStatusCancelled:        {OrderStatusRefunded},
	OrderStatusRefunded:         {},
}

// KnownOrderStatus reports whether status belongs to the lifecycle state set.
func KnownOrderStatus(status OrderStatus) bool {
	_, ok := orderTransitions[status]
	return ok
}

// AllowedNextStates returns a copy of the legal target statuses for status.
// Unknown statuses yield an empty set.
func AllowedNextStates(status OrderStatus) []OrderStatus {
	next := orderTransitions[status]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is a legal edge. A transition to
// the current status is never legal.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return false
	}
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether status has no outgoing edges.
func IsTerminalStatus(status OrderStatus) bool {
	return KnownOrderStatus(status) && len(orderTransitions[status]) == 0
}
