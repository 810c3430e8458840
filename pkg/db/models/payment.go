package models

import (
	"time"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
)

// Payment is one gateway payment attempt against an order. Rows are created
// at checkout (or when a dp settles, for the final slot), mutated only by
// the webhook reconciler or an explicit retry, and never deleted. The
// integer primary key is embedded in the gateway order-id so notifications
// can be correlated back.
type Payment struct {
	ID                   int64               `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID              int64               `gorm:"column:order_id;not null;index"`
	Amount               int64               `gorm:"column:amount;not null"`
	PaymentType          enums.PaymentType   `gorm:"column:payment_type;type:text;not null"`
	Status               enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	GatewayOrderID       *string             `gorm:"column:gateway_order_id"`
	GatewayTransactionID *string             `gorm:"column:gateway_transaction_id"`
	SnapToken            *string             `gorm:"column:snap_token"`
	PaidAt               *time.Time          `gorm:"column:paid_at"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
