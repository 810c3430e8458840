package controllers

import (
	"net/http"

	"github.com/ihza6661/dua-insan-story-sub002/api/middleware"
	"github.com/ihza6661/dua-insan-story-sub002/api/responses"
	"github.com/ihza6661/dua-insan-story-sub002/api/validators"
	checkoutsvc "github.com/ihza6661/dua-insan-story-sub002/internal/checkout"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
)

// Checkout turns the submitted cart lines into an order plus the first
// payment attempt.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		option, err := enums.ParsePaymentOption(payload.PaymentOption)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment option"))
			return
		}

		items := make([]checkoutsvc.Item, 0, len(payload.Items))
		for _, line := range payload.Items {
			items = append(items, checkoutsvc.Item{VariantID: line.VariantID, Qty: line.Qty})
		}

		result, err := svc.Execute(r.Context(), checkoutsvc.Input{
			UserID:         userID,
			Items:          items,
			ShippingMethod: payload.ShippingMethod,
			ShippingCost:   payload.ShippingCost,
			PaymentOption:  option,
			PromoCode:      payload.PromoCode,
		})
		if err != nil {
			// A token failure after commit still created the order; the
			// error body carries its reference so the client can retry
			// payment instead of checking out again.
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeDependency && result != nil && result.Order != nil {
				err = typed.WithDetails(map[string]any{
					"order_id":     result.Order.ID,
					"order_number": result.Order.OrderNumber,
				})
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}

type checkoutRequest struct {
	Items          []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingMethod string                `json:"shipping_method" validate:"required"`
	ShippingCost   int64                 `json:"shipping_cost" validate:"min=0"`
	PaymentOption  string                `json:"payment_option" validate:"required"`
	PromoCode      string                `json:"promo_code,omitempty"`
}

type checkoutItemRequest struct {
	VariantID int64 `json:"variant_id" validate:"required,gt=0"`
	Qty       int   `json:"qty" validate:"required,gt=0"`
}

type checkoutResponse struct {
	Order     orderResponse   `json:"order"`
	Payment   paymentResponse `json:"payment"`
	SnapToken string          `json:"snap_token,omitempty"`
}

func newCheckoutResponse(result *checkoutsvc.Result) checkoutResponse {
	return checkoutResponse{
		Order:     newOrderResponse(result.Order),
		Payment:   newPaymentResponse(result.Payment),
		SnapToken: result.SnapToken,
	}
}
