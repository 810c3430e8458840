package controllers

import (
	"net/http"

	"github.com/ihza6661/dua-insan-story-sub002/api/responses"
	"github.com/ihza6661/dua-insan-story-sub002/api/validators"
	orderssvc "github.com/ihza6661/dua-insan-story-sub002/internal/orders"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
)

// AdvanceOrder moves a paid order one step along the fulfillment chain.
// Admin only; the route is mounted behind the role guard.
func AdvanceOrder(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Advance(r.Context(), orderssvc.AdvanceInput{OrderID: orderID, Actor: actor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
