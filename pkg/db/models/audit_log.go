package models

import (
	"time"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/types"
)

// AuditLog is an append-only record of who changed what. Entries are never
// updated or deleted.
type AuditLog struct {
	ID           int64         `gorm:"column:id;primaryKey;autoIncrement"`
	ActorID      *int64        `gorm:"column:actor_id"`
	Action       string        `gorm:"column:action;not null"`
	EntityType   string        `gorm:"column:entity_type;not null"`
	EntityID     int64         `gorm:"column:entity_id;not null;index"`
	BeforeStatus *string       `gorm:"column:before_status"`
	AfterStatus  *string       `gorm:"column:after_status"`
	Properties   types.JSONMap `gorm:"column:properties;type:jsonb;serializer:json"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime"`
}
