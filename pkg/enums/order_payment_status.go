package enums

import "fmt"

// OrderPaymentStatus tracks the aggregate payment state of an order,
// independently of the order status because one order can carry multiple
// payment attempts.
type OrderPaymentStatus string

const (
	OrderPaymentStatusPending       OrderPaymentStatus = "pending"
	OrderPaymentStatusPartiallyPaid OrderPaymentStatus = "partially_paid"
	OrderPaymentStatusPaid          OrderPaymentStatus = "paid"
	OrderPaymentStatusRefunded      OrderPaymentStatus = "refunded"
)

var validOrderPaymentStatuses = []OrderPaymentStatus{
	OrderPaymentStatusPending,
	OrderPaymentStatusPartiallyPaid,
	OrderPaymentStatusPaid,
	OrderPaymentStatusRefunded,
}

// String implements fmt.Stringer.
func (o OrderPaymentStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderPaymentStatus.
func (o OrderPaymentStatus) IsValid() bool {
	for _, candidate := range validOrderPaymentStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderPaymentStatus converts raw input into an OrderPaymentStatus.
func ParseOrderPaymentStatus(value string) (OrderPaymentStatus, error) {
	for _, candidate := range validOrderPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order payment status %q", value)
}
