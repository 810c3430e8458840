package models

import (
	"time"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
)

// User is the minimal account model the order core needs for ownership and
// role checks.
type User struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string         `gorm:"column:name;not null"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
