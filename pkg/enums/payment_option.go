package enums

import "fmt"

// PaymentOption is the checkout-time choice between paying in full or
// opening with a 30% or 50% down payment.
type PaymentOption string

const (
	PaymentOptionFull PaymentOption = "full"
	PaymentOptionDP30 PaymentOption = "dp_30"
	PaymentOptionDP50 PaymentOption = "dp_50"
)

var validPaymentOptions = []PaymentOption{
	PaymentOptionFull,
	PaymentOptionDP30,
	PaymentOptionDP50,
}

// InitialPercent returns the share of the order total due on the first
// payment for this option, as a whole percentage.
func (p PaymentOption) InitialPercent() int64 {
	switch p {
	case PaymentOptionDP30:
		return 30
	case PaymentOptionDP50:
		return 50
	default:
		return 100
	}
}

// PaymentType maps the option onto the initial payment's type.
func (p PaymentOption) PaymentType() PaymentType {
	if p == PaymentOptionFull {
		return PaymentTypeFull
	}
	return PaymentTypeDP
}

// String implements fmt.Stringer.
func (p PaymentOption) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentOption.
func (p PaymentOption) IsValid() bool {
	for _, candidate := range validPaymentOptions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentOption converts raw input into a PaymentOption.
func ParsePaymentOption(value string) (PaymentOption, error) {
	for _, candidate := range validPaymentOptions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment option %q", value)
}
