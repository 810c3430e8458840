package checkout

import (
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
)

// Item is one cart line submitted to checkout. Prices are recomputed from
// the catalog; the client never supplies them.
type Item struct {
	VariantID int64
	Qty       int
}

// Input captures a validated checkout submission.
type Input struct {
	UserID         int64
	Items          []Item
	ShippingMethod string
	ShippingCost   int64
	PaymentOption  enums.PaymentOption
	PromoCode      string
}

// Result is the created order plus the gateway token. SnapToken is empty
// when the post-commit gateway call failed; the order stays payable via the
// retry endpoint.
type Result struct {
	Order     *models.Order
	Payment   *models.Payment
	SnapToken string
}
