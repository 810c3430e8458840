package orders

import (
	"testing"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    enums.OrderStatus
		to      enums.OrderStatus
		allowed bool
	}{
		{enums.OrderStatusPendingPayment, enums.OrderStatusPartiallyPaid, true},
		{enums.OrderStatusPendingPayment, enums.OrderStatusPaid, true},
		{enums.OrderStatusPendingPayment, enums.OrderStatusFailed, true},
		{enums.OrderStatusPartiallyPaid, enums.OrderStatusPaid, true},
		{enums.OrderStatusPaid, enums.OrderStatusProcessing, true},
		{enums.OrderStatusCancelled, enums.OrderStatusRefunded, true},
		{enums.OrderStatusPaid, enums.OrderStatusPendingPayment, false},
		{enums.OrderStatusCompleted, enums.OrderStatusCancelled, false},
		{enums.OrderStatusFailed, enums.OrderStatusPaid, false},
		{enums.OrderStatusPendingPayment, enums.OrderStatusShipped, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.allowed {
			t.Fatalf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestCheckTransitionInvalid(t *testing.T) {
	err := CheckTransition(enums.OrderStatusCompleted, enums.OrderStatusPaid)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	err = CheckTransition(enums.OrderStatusPaid, enums.OrderStatus("Bogus"))
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestNextFulfillmentStatus(t *testing.T) {
	next, err := NextFulfillmentStatus(enums.OrderStatusPaid)
	if err != nil || next != enums.OrderStatusProcessing {
		t.Fatalf("expected Processing, got %q, %v", next, err)
	}
	next, err = NextFulfillmentStatus(enums.OrderStatusDelivered)
	if err != nil || next != enums.OrderStatusCompleted {
		t.Fatalf("expected Completed, got %q, %v", next, err)
	}

	if _, err := NextFulfillmentStatus(enums.OrderStatusCompleted); pkgerrors.As(err) == nil {
		t.Fatalf("expected error for completed order, got %v", err)
	}
	if _, err := NextFulfillmentStatus(enums.OrderStatusPendingPayment); pkgerrors.As(err) == nil {
		t.Fatalf("expected error for unpaid order, got %v", err)
	}
}
