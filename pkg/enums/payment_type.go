package enums

import "fmt"

// PaymentType distinguishes the slot a payment occupies: the single full
// payment, a down payment, or the closing final payment of a dp order.
type PaymentType string

const (
	PaymentTypeFull  PaymentType = "full"
	PaymentTypeDP    PaymentType = "dp"
	PaymentTypeFinal PaymentType = "final"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeFull,
	PaymentTypeDP,
	PaymentTypeFinal,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
