package promos

import (
	"context"

	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
)

// Repository defines persistence operations for promo codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
	CountUserUsage(ctx context.Context, promoCodeID, userID int64) (int64, error)
	Consume(ctx context.Context, promoCodeID int64) error
}

// Service validates promo codes and computes discounts. Validation never
// mutates used_count; consumption is a separate call made inside the
// order-creation transaction.
type Service interface {
	Validate(ctx context.Context, input ValidateInput) (*ValidationResult, error)
	Consume(ctx context.Context, tx *gorm.DB, promoCodeID int64) error
}
