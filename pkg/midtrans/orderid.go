package midtrans

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
)

// EncodeOrderID builds the gateway-facing order id for a payment. The
// payment id leads so webhook handling can recover it, and the random
// suffix keeps retried attempts for the same payment distinct at the
// gateway.
func EncodeOrderID(paymentID int64) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%d-%s", paymentID, suffix)
}

// DecodePaymentID extracts the payment id from a gateway order id.
func DecodePaymentID(orderID string) (int64, error) {
	head, _, found := strings.Cut(orderID, "-")
	if !found || head == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "malformed gateway order id").
			WithDetails(map[string]any{"order_id": orderID})
	}
	id, err := strconv.ParseInt(head, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "malformed gateway order id").
			WithDetails(map[string]any{"order_id": orderID})
	}
	return id, nil
}
