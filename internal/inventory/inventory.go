package inventory

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
)

// Reservation is one variant/quantity pair to reserve or restore.
type Reservation struct {
	VariantID int64
	Qty       int
}

// Reserve decrements stock for every request inside the caller's
// transaction. Each decrement is a single guarded UPDATE so the stock
// column can never go negative; the first variant without enough stock
// aborts the whole batch with an OUT_OF_STOCK error.
func Reserve(ctx context.Context, tx *gorm.DB, requests []Reservation) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "reserve requires a transaction")
	}
	for _, req := range requests {
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive").
				WithDetails(map[string]any{"variant_id": req.VariantID, "qty": req.Qty})
		}

		result := tx.WithContext(ctx).
			Model(&models.ProductVariant{}).
			Where("id = ? AND stock >= ?", req.VariantID, req.Qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", req.Qty))
		if result.Error != nil {
			return fmt.Errorf("reserve stock for variant %d: %w", req.VariantID, result.Error)
		}
		if result.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").
				WithDetails(map[string]any{"variant_id": req.VariantID, "requested_qty": req.Qty})
		}
	}
	return nil
}

// Restore returns previously reserved stock, e.g. when a cancellation is
// approved. Missing variants are skipped rather than failed so a deleted
// catalog row cannot block the cancellation.
func Restore(ctx context.Context, tx *gorm.DB, requests []Reservation) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "restore requires a transaction")
	}
	for _, req := range requests {
		if req.Qty <= 0 {
			continue
		}
		result := tx.WithContext(ctx).
			Model(&models.ProductVariant{}).
			Where("id = ?", req.VariantID).
			UpdateColumn("stock", gorm.Expr("stock + ?", req.Qty))
		if result.Error != nil {
			return fmt.Errorf("restore stock for variant %d: %w", req.VariantID, result.Error)
		}
	}
	return nil
}
