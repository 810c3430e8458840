package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ihza6661/dua-insan-story-sub002/api/responses"
	midtranswebhook "github.com/ihza6661/dua-insan-story-sub002/internal/webhooks/midtrans"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/metrics"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/midtrans"
)

// Guard deduplicates notification deliveries before reconciliation runs.
type Guard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// MidtransWebhook reconciles gateway payment notifications. The gateway
// retries anything but a 2xx, so every reconciliation outcome except an
// unknown payment acknowledges with 200.
func MidtransWebhook(
	svc *midtranswebhook.Service,
	verifier midtrans.NotificationVerifier,
	guard Guard,
	payMetrics *metrics.PaymentMetrics,
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		notification, err := verifier.ParseNotification(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		// Keyed on the order reference as well: gateways and tests may
		// omit transaction_id, and two payments settling must never
		// collapse into one dedup entry.
		eventID := notification.OrderID + ":" + notification.TransactionID + ":" + notification.TransactionStatus
		if guard != nil {
			alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if alreadyProcessed {
				payMetrics.IncWebhookOutcome(string(midtranswebhook.OutcomeReplay))
				writeAck(w)
				return
			}
		}

		start := time.Now()
		outcome, err := svc.Process(ctx, notification)
		payMetrics.ObserveWebhook(notification.TransactionStatus, time.Since(start))
		payMetrics.IncWebhookOutcome(string(outcome))
		if err != nil {
			if guard != nil {
				_ = guard.Delete(ctx, eventID)
			}
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Payment not found"})
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		writeAck(w)
	}
}

func writeAck(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
