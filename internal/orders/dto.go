package orders

import (
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
)

// Actor identifies the authenticated caller for ownership and role checks.
type Actor struct {
	UserID int64
	Role   enums.UserRole
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// OrderList is one page of orders plus the cursor for the next page.
type OrderList struct {
	Orders     []models.Order
	NextCursor string
}

// AdvanceInput moves an order one step along the fulfillment chain.
type AdvanceInput struct {
	OrderID int64
	Actor   Actor
}

// PaymentTokenInput requests a fresh gateway token for an existing order.
type PaymentTokenInput struct {
	OrderID int64
	Actor   Actor
}

// PaymentTokenResult carries the payment row and the token the client pays
// with.
type PaymentTokenResult struct {
	Payment   *models.Payment
	SnapToken string
}
