package audit

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/types"
)

// Entity types recorded in the audit trail.
const (
	EntityOrder               = "order"
	EntityCancellationRequest = "cancellation_request"
	EntityPayment             = "payment"
)

// Entry is one immutable audit line. Before/After capture the status
// strings around a transition; Properties carries free-form context.
type Entry struct {
	ActorID      *int64
	Action       string
	EntityType   string
	EntityID     int64
	BeforeStatus *string
	AfterStatus  *string
	Properties   types.JSONMap
}

// Record appends the entry using the caller's transaction so the audit line
// commits or rolls back together with the change it describes.
func Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return fmt.Errorf("audit record requires a transaction")
	}
	if entry.Action == "" || entry.EntityType == "" {
		return fmt.Errorf("audit entry requires action and entity type")
	}
	row := models.AuditLog{
		ActorID:      entry.ActorID,
		Action:       entry.Action,
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		BeforeStatus: entry.BeforeStatus,
		AfterStatus:  entry.AfterStatus,
		Properties:   entry.Properties,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
