package controllers

import (
	"context"
	"net/http"

	"github.com/ihza6661/dua-insan-story-sub002/api/middleware"
	"github.com/ihza6661/dua-insan-story-sub002/api/responses"
	"github.com/ihza6661/dua-insan-story-sub002/api/validators"
	orderssvc "github.com/ihza6661/dua-insan-story-sub002/internal/orders"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/pagination"
)

func actorFromContext(r *http.Request) (orderssvc.Actor, error) {
	userID := middleware.UserIDFromContext(r.Context())
	role := enums.UserRole(middleware.RoleFromContext(r.Context()))
	if userID <= 0 || !role.IsValid() {
		return orderssvc.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return orderssvc.Actor{UserID: userID, Role: role}, nil
}

// GetOrder returns one order with its items and payment attempts.
func GetOrder(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		order, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// ListOrders returns the caller's orders newest first, cursor paginated.
func ListOrders(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actor, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders := make([]orderResponse, 0, len(list.Orders))
		for i := range list.Orders {
			orders = append(orders, newOrderResponse(&list.Orders[i]))
		}
		responses.WriteSuccess(w, orderListResponse{Orders: orders, NextCursor: list.NextCursor})
	}
}

// RetryPayment re-issues a gateway token for the order's outstanding
// payment attempt.
func RetryPayment(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentTokenHandler(svc, logg, orderssvc.Service.RetryPayment)
}

// InitiateFinalPayment opens payment for the remaining balance of a
// partially paid order.
func InitiateFinalPayment(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentTokenHandler(svc, logg, orderssvc.Service.InitiateFinalPayment)
}

func paymentTokenHandler(
	svc orderssvc.Service,
	logg *logger.Logger,
	op func(orderssvc.Service, context.Context, orderssvc.PaymentTokenInput) (*orderssvc.PaymentTokenResult, error),
) http.HandlerFunc {
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

		result, err := op(svc, r.Context(), orderssvc.PaymentTokenInput{OrderID: orderID, Actor: actor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, paymentTokenResponse{
			Payment:   newPaymentResponse(result.Payment),
			SnapToken: result.SnapToken,
		})
	}
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type paymentTokenResponse struct {
	Payment   paymentResponse `json:"payment"`
	SnapToken string          `json:"snap_token"`
}
