package models

import (
	"time"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/types"
)

// Invitation is the digital invitation issued for a paid digital order
// item. Issuance is idempotent per order item.
type Invitation struct {
	ID           int64                         `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID      int64                         `gorm:"column:order_id;not null;index"`
	OrderItemID  int64                         `gorm:"column:order_item_id;not null;uniqueIndex"`
	Slug         string                        `gorm:"column:slug;not null;uniqueIndex"`
	Status       enums.InvitationStatus        `gorm:"column:status;type:text;not null;default:'draft'"`
	TemplateData *types.InvitationTemplateData `gorm:"column:template_data;type:jsonb;serializer:json"`
	PublishedAt  *time.Time                    `gorm:"column:published_at"`
	CreatedAt    time.Time                     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                     `gorm:"column:updated_at;autoUpdateTime"`
}
