package enums

import "fmt"

// OrderStatus tracks the lifecycle of an order. The string values are
// persisted verbatim and compared by external reporting tools, so they must
// never change spelling.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "Pending Payment"
	OrderStatusPartiallyPaid  OrderStatus = "Partially Paid"
	OrderStatusPaid           OrderStatus = "Paid"
	OrderStatusProcessing     OrderStatus = "Processing"
	OrderStatusDesignApproval OrderStatus = "Design Approval"
	OrderStatusInProduction   OrderStatus = "In Production"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusDelivered      OrderStatus = "Delivered"
	OrderStatusCompleted      OrderStatus = "Completed"
	OrderStatusCancelled      OrderStatus = "Cancelled"
	OrderStatusFailed         OrderStatus = "Failed"
	OrderStatusRefunded       OrderStatus = "Refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusPartiallyPaid,
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusDesignApproval,
	OrderStatusInProduction,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusFailed,
	OrderStatusRefunded,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
