package promos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
)

// ValidateInput carries everything the validation chain needs.
type ValidateInput struct {
	Code     string
	UserID   int64
	Subtotal int64
	Now      time.Time
}

// ValidationResult is the computed discount plus the code details callers
// denormalize into their response.
type ValidationResult struct {
	PromoCode      *models.PromoCode
	DiscountAmount int64
}

type service struct {
	repo Repository
}

// NewService builds a promo validation service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promos repository required")
	}
	return &service{repo: repo}, nil
}

// Validate runs the check chain in a fixed order and short-circuits on the
// first failure. It reads but never writes; used_count moves only via
// Consume inside the order-creation transaction.
func (s *service) Validate(ctx context.Context, input ValidateInput) (*ValidationResult, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, invalidPromo("promo code is required")
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidPromo("promo code not found")
		}
		return nil, fmt.Errorf("look up promo code: %w", err)
	}

	if !promo.IsActive {
		return nil, invalidPromo("promo code is not active")
	}
	if now.Before(promo.ValidFrom) {
		return nil, invalidPromo("promo code is not valid yet")
	}
	if now.After(promo.ValidUntil) {
		return nil, invalidPromo("promo code has expired")
	}
	if promo.MinPurchaseAmount != nil && input.Subtotal < *promo.MinPurchaseAmount {
		return nil, invalidPromo(fmt.Sprintf("minimum purchase of %d not met", *promo.MinPurchaseAmount))
	}
	if promo.TotalUsageLimit != nil && promo.UsedCount >= *promo.TotalUsageLimit {
		return nil, invalidPromo("promo code usage limit reached")
	}
	if promo.UsageLimitPerUser != nil {
		used, err := s.repo.CountUserUsage(ctx, promo.ID, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("count promo usage: %w", err)
		}
		if used >= int64(*promo.UsageLimitPerUser) {
			return nil, invalidPromo("promo code already used the maximum number of times")
		}
	}

	discount, err := computeDiscount(promo, input.Subtotal)
	if err != nil {
		return nil, err
	}
	return &ValidationResult{PromoCode: promo, DiscountAmount: discount}, nil
}

func (s *service) Consume(ctx context.Context, tx *gorm.DB, promoCodeID int64) error {
	return s.repo.WithTx(tx).Consume(ctx, promoCodeID)
}

// computeDiscount applies the discount rules. Percentage math runs on
// decimals and truncates to whole rupiah; the result is capped at
// max_discount_amount when set, and never exceeds the subtotal.
func computeDiscount(promo *models.PromoCode, subtotal int64) (int64, error) {
	var discount int64
	switch promo.DiscountType {
	case enums.DiscountTypeFixed:
		discount = promo.DiscountValue
	case enums.DiscountTypePercentage:
		discount = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(promo.DiscountValue)).
			Div(decimal.NewFromInt(100)).
			IntPart()
		if promo.MaxDiscountAmount != nil && discount > *promo.MaxDiscountAmount {
			discount = *promo.MaxDiscountAmount
		}
	default:
		return 0, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown discount type %q", promo.DiscountType))
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount, nil
}

func invalidPromo(reason string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidPromo, reason)
}
