package controllers

import (
	"context"
	"net/http"

	"github.com/ihza6661/dua-insan-story-sub002/api/responses"
	"github.com/ihza6661/dua-insan-story-sub002/api/validators"
	cancellationsvc "github.com/ihza6661/dua-insan-story-sub002/internal/cancellations"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
)

// CreateCancellation files a customer's cancellation request for review.
func CreateCancellation(svc cancellationsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload cancellationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Create(r.Context(), cancellationsvc.CreateInput{
			OrderID: orderID,
			Actor:   actor,
			Reason:  payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCancellationResponse(request))
	}
}

// GetCancellation returns the latest cancellation request for an order.
func GetCancellation(svc cancellationsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		request, err := svc.GetForOrder(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCancellationResponse(request))
	}
}

// ApproveCancellation is the admin's approve decision.
func ApproveCancellation(svc cancellationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cancellationDecisionHandler(svc, logg, cancellationsvc.Service.Approve)
}

// RejectCancellation is the admin's reject decision.
func RejectCancellation(svc cancellationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cancellationDecisionHandler(svc, logg, cancellationsvc.Service.Reject)
}

func cancellationDecisionHandler(
	svc cancellationsvc.Service,
	logg *logger.Logger,
	op func(cancellationsvc.Service, context.Context, cancellationsvc.DecisionInput) (*models.CancellationRequest, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := validators.ParseIDParam(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancellationDecisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := op(svc, r.Context(), cancellationsvc.DecisionInput{
			RequestID:    requestID,
			Actor:        actor,
			Notes:        payload.Notes,
			RefundAmount: payload.RefundAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCancellationResponse(request))
	}
}

type cancellationRequest struct {
	Reason string `json:"reason" validate:"required,min=10"`
}

type cancellationDecisionRequest struct {
	Notes        string `json:"notes,omitempty"`
	RefundAmount *int64 `json:"refund_amount,omitempty" validate:"omitempty,min=0"`
}
