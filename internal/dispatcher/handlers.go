package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/outbox"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/outbox/payloads"
)

type invitationIssuer interface {
	IssueForOrder(ctx context.Context, orderID int64) (int, error)
}

// NewOrderPaidInvitationHandler issues draft invitations for the digital
// items of an order that just reached Paid.
func NewOrderPaidInvitationHandler(issuer invitationIssuer) Handler {
	return func(ctx context.Context, row models.OutboxEvent) error {
		event, err := decodeOrderPaid(row)
		if err != nil {
			return err
		}
		if _, err := issuer.IssueForOrder(ctx, event.OrderID); err != nil {
			return fmt.Errorf("issue invitations for order %d: %w", event.OrderID, err)
		}
		return nil
	}
}

func decodeOrderPaid(row models.OutboxEvent) (*payloads.OrderPaidEvent, error) {
	if row.EventType != enums.EventOrderPaid {
		return nil, fmt.Errorf("unexpected event type %q", row.EventType)
	}
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}
	var event payloads.OrderPaidEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		return nil, fmt.Errorf("decode order.paid payload: %w", err)
	}
	if event.OrderID <= 0 {
		return nil, fmt.Errorf("order.paid payload missing order_id")
	}
	return &event, nil
}
