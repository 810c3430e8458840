package orders

import (
	"fmt"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
)

// allowedTransitions is the full order status graph. The happy path runs
// Pending Payment through Completed; Cancelled, Failed, and Refunded are
// side branches entered by the cancellation workflow, the webhook
// reconciler, and refund bookkeeping respectively.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPendingPayment: {
		enums.OrderStatusPartiallyPaid,
		enums.OrderStatusPaid,
		enums.OrderStatusFailed,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusPartiallyPaid: {
		enums.OrderStatusPaid,
		enums.OrderStatusFailed,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusPaid: {
		enums.OrderStatusProcessing,
		enums.OrderStatusCancelled,
		enums.OrderStatusRefunded,
	},
	enums.OrderStatusProcessing: {
		enums.OrderStatusDesignApproval,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusDesignApproval: {
		enums.OrderStatusInProduction,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusInProduction: {
		enums.OrderStatusShipped,
	},
	enums.OrderStatusShipped: {
		enums.OrderStatusDelivered,
	},
	enums.OrderStatusDelivered: {
		enums.OrderStatusCompleted,
	},
	enums.OrderStatusCompleted: {},
	enums.OrderStatusCancelled: {
		enums.OrderStatusRefunded,
	},
	enums.OrderStatusFailed:   {},
	enums.OrderStatusRefunded: {},
}

// adminAdvanceChain is the fulfillment sequence admins walk one step at a
// time after payment completes.
var adminAdvanceChain = []enums.OrderStatus{
	enums.OrderStatusPaid,
	enums.OrderStatusProcessing,
	enums.OrderStatusDesignApproval,
	enums.OrderStatusInProduction,
	enums.OrderStatusShipped,
	enums.OrderStatusDelivered,
	enums.OrderStatusCompleted,
}

// CanTransition reports whether from → to is an allowed edge.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// CheckTransition returns an invalid-transition error when from → to is not
// allowed. Callers log and surface it; it is never applied silently.
func CheckTransition(from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", to))
	}
	if !CanTransition(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order cannot move from %q to %q", from, to)).
			WithDetails(map[string]any{"from": from.String(), "to": to.String()})
	}
	return nil
}

// NextFulfillmentStatus returns the next step of the admin fulfillment
// chain, or an error when the order is not on the chain or already done.
func NextFulfillmentStatus(current enums.OrderStatus) (enums.OrderStatus, error) {
	for i, status := range adminAdvanceChain {
		if status != current {
			continue
		}
		if i == len(adminAdvanceChain)-1 {
			return "", pkgerrors.New(pkgerrors.CodeStateConflict, "order is already completed")
		}
		return adminAdvanceChain[i+1], nil
	}
	return "", pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("order in status %q cannot be advanced", current))
}
