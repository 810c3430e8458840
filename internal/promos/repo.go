package promos

import (
	"context"

	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a promo code repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// CountUserUsage counts the user's orders carrying the promo code. Failed
// and cancelled orders do not burn the per-user allowance.
func (r *repository) CountUserUsage(ctx context.Context, promoCodeID, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("promo_code_id = ? AND user_id = ?", promoCodeID, userID).
		Where("status NOT IN ?", []enums.OrderStatus{enums.OrderStatusFailed, enums.OrderStatusCancelled}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Consume increments used_count with the total limit enforced in the same
// UPDATE, so concurrent checkouts can never push the counter past the cap.
func (r *repository) Consume(ctx context.Context, promoCodeID int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id = ? AND (total_usage_limit IS NULL OR used_count < total_usage_limit)", promoCodeID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidPromo, "promo code usage limit reached")
	}
	return nil
}
