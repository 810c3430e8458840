package models

import (
	"time"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
)

// Order is the aggregate root for checkout results. Amount columns are
// whole rupiah. TotalAmount always equals subtotal - discount + shipping at
// creation time; only status columns change afterwards, except for refund
// adjustments driven by the cancellation workflow.
type Order struct {
	ID             int64                    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID         int64                    `gorm:"column:user_id;not null;index"`
	OrderNumber    string                   `gorm:"column:order_number;not null;uniqueIndex"`
	Status         enums.OrderStatus        `gorm:"column:status;type:text;not null;default:'Pending Payment'"`
	PaymentStatus  enums.OrderPaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	SubtotalAmount int64                    `gorm:"column:subtotal_amount;not null"`
	DiscountAmount int64                    `gorm:"column:discount_amount;not null;default:0"`
	ShippingCost   int64                    `gorm:"column:shipping_cost;not null;default:0"`
	ShippingMethod string                   `gorm:"column:shipping_method;not null;default:''"`
	TotalAmount    int64                    `gorm:"column:total_amount;not null"`
	PromoCodeID    *int64                   `gorm:"column:promo_code_id;index"`
	Items          []OrderItem              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments       []Payment                `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots the variant at order time. Unit prices are frozen and
// independent of later catalog changes.
type OrderItem struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     int64     `gorm:"column:order_id;not null;index"`
	VariantID   int64     `gorm:"column:variant_id;not null"`
	ProductName string    `gorm:"column:product_name;not null"`
	VariantName string    `gorm:"column:variant_name;not null"`
	IsDigital   bool      `gorm:"column:is_digital;not null;default:false"`
	Quantity    int       `gorm:"column:quantity;not null"`
	UnitPrice   int64     `gorm:"column:unit_price;not null"`
	SubTotal    int64     `gorm:"column:sub_total;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
