package models

import (
	"time"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
)

// PromoCode holds the discount rules checked by the promo validator.
// UsedCount is incremented only inside the order-creation transaction.
type PromoCode struct {
	ID                int64              `gorm:"column:id;primaryKey;autoIncrement"`
	Code              string             `gorm:"column:code;not null;uniqueIndex"`
	Description       string             `gorm:"column:description;not null;default:''"`
	DiscountType      enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue     int64              `gorm:"column:discount_value;not null"`
	MinPurchaseAmount *int64             `gorm:"column:min_purchase_amount"`
	MaxDiscountAmount *int64             `gorm:"column:max_discount_amount"`
	UsageLimitPerUser *int               `gorm:"column:usage_limit_per_user"`
	TotalUsageLimit   *int               `gorm:"column:total_usage_limit"`
	UsedCount         int                `gorm:"column:used_count;not null;default:0"`
	ValidFrom         time.Time          `gorm:"column:valid_from;not null"`
	ValidUntil        time.Time          `gorm:"column:valid_until;not null"`
	IsActive          bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
