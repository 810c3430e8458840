package models

import (
	"time"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
)

// CancellationRequest is created by a customer and decided exactly once by
// an admin. Approve/reject are terminal transitions.
type CancellationRequest struct {
	ID                  int64                    `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID             int64                    `gorm:"column:order_id;not null;index"`
	RequestedByID       int64                    `gorm:"column:requested_by_id;not null"`
	Reason              string                   `gorm:"column:reason;not null"`
	Status              enums.CancellationStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ReviewedByID        *int64                   `gorm:"column:reviewed_by_id"`
	AdminNotes          *string                  `gorm:"column:admin_notes"`
	RefundAmount        *int64                   `gorm:"column:refund_amount"`
	RefundTransactionID *string                  `gorm:"column:refund_transaction_id"`
	RefundStatus        enums.RefundStatus       `gorm:"column:refund_status;type:text;not null;default:'none'"`
	StockRestored       bool                     `gorm:"column:stock_restored;not null;default:false"`
	ReviewedAt          *time.Time               `gorm:"column:reviewed_at"`
	CreatedAt           time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
