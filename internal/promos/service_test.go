package promos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:promos_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.PromoCode{}, &models.Order{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func seedPromo(t *testing.T, db *gorm.DB, promo models.PromoCode) models.PromoCode {
	t.Helper()
	if promo.ValidFrom.IsZero() {
		promo.ValidFrom = time.Now().Add(-time.Hour)
	}
	if promo.ValidUntil.IsZero() {
		promo.ValidUntil = time.Now().Add(time.Hour)
	}
	if err := db.Create(&promo).Error; err != nil {
		t.Fatalf("seed promo: %v", err)
	}
	return promo
}

func TestValidatePercentageCap(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedPromo(t, db, models.PromoCode{
		Code:              "SAVE10",
		DiscountType:      enums.DiscountTypePercentage,
		DiscountValue:     10,
		MaxDiscountAmount: int64Ptr(50000),
		IsActive:          true,
	})

	svc := newTestService(t, db)
	result, err := svc.Validate(context.Background(), ValidateInput{Code: "SAVE10", UserID: 1, Subtotal: 1000000})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	// 10% of 1,000,000 is 100,000, capped at 50,000.
	if result.DiscountAmount != 50000 {
		t.Fatalf("expected discount 50000, got %d", result.DiscountAmount)
	}
}

func TestValidateFixedDiscountClampedToSubtotal(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedPromo(t, db, models.PromoCode{
		Code:          "FLAT75",
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: 75000,
		IsActive:      true,
	})

	svc := newTestService(t, db)
	result, err := svc.Validate(context.Background(), ValidateInput{Code: "FLAT75", UserID: 1, Subtotal: 50000})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.DiscountAmount != 50000 {
		t.Fatalf("expected discount clamped to 50000, got %d", result.DiscountAmount)
	}
}

func TestValidateFailures(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	now := time.Now()

	seedPromo(t, db, models.PromoCode{
		Code:          "INACTIVE",
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: 1000,
		IsActive:      false,
	})
	seedPromo(t, db, models.PromoCode{
		Code:          "EXPIRED",
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: 1000,
		IsActive:      true,
		ValidFrom:     now.Add(-48 * time.Hour),
		ValidUntil:    now.Add(-24 * time.Hour),
	})
	seedPromo(t, db, models.PromoCode{
		Code:          "NOTYET",
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: 1000,
		IsActive:      true,
		ValidFrom:     now.Add(24 * time.Hour),
		ValidUntil:    now.Add(48 * time.Hour),
	})
	seedPromo(t, db, models.PromoCode{
		Code:              "BIGSPEND",
		DiscountType:      enums.DiscountTypeFixed,
		DiscountValue:     1000,
		MinPurchaseAmount: int64Ptr(500000),
		IsActive:          true,
	})
	seedPromo(t, db, models.PromoCode{
		Code:            "SOLDOUT",
		DiscountType:    enums.DiscountTypeFixed,
		DiscountValue:   1000,
		TotalUsageLimit: intPtr(10),
		UsedCount:       10,
		IsActive:        true,
	})

	svc := newTestService(t, db)
	for _, code := range []string{"MISSING", "INACTIVE", "EXPIRED", "NOTYET", "BIGSPEND", "SOLDOUT", ""} {
		_, err := svc.Validate(context.Background(), ValidateInput{Code: code, UserID: 1, Subtotal: 100000})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeInvalidPromo {
			t.Fatalf("code %q: expected invalid promo error, got %v", code, err)
		}
	}
}

func TestValidatePerUserLimit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	promo := seedPromo(t, db, models.PromoCode{
		Code:              "ONCE",
		DiscountType:      enums.DiscountTypeFixed,
		DiscountValue:     1000,
		UsageLimitPerUser: intPtr(1),
		IsActive:          true,
	})

	user := models.User{Name: "Ayu", Email: "ayu@example.test", PasswordHash: "x", Role: enums.UserRoleCustomer}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	order := models.Order{
		UserID:         user.ID,
		OrderNumber:    "INV-20260829-TEST01",
		Status:         enums.OrderStatusPaid,
		PaymentStatus:  enums.OrderPaymentStatusPaid,
		SubtotalAmount: 100000,
		TotalAmount:    99000,
		PromoCodeID:    &promo.ID,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	svc := newTestService(t, db)

	_, err := svc.Validate(context.Background(), ValidateInput{Code: "ONCE", UserID: user.ID, Subtotal: 100000})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidPromo {
		t.Fatalf("expected per-user limit failure, got %v", err)
	}

	// A different user can still use the code.
	if _, err := svc.Validate(context.Background(), ValidateInput{Code: "ONCE", UserID: user.ID + 1, Subtotal: 100000}); err != nil {
		t.Fatalf("expected other user to validate, got %v", err)
	}
}

func TestValidatePerUserLimitIgnoresDeadOrders(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	promo := seedPromo(t, db, models.PromoCode{
		Code:              "ONCE",
		DiscountType:      enums.DiscountTypeFixed,
		DiscountValue:     1000,
		UsageLimitPerUser: intPtr(1),
		IsActive:          true,
	})

	user := models.User{Name: "Ayu", Email: "ayu@example.test", PasswordHash: "x", Role: enums.UserRoleCustomer}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	for i, status := range []enums.OrderStatus{enums.OrderStatusFailed, enums.OrderStatusCancelled} {
		order := models.Order{
			UserID:         user.ID,
			OrderNumber:    "INV-20260829-DEAD0" + string(rune('1'+i)),
			Status:         status,
			PaymentStatus:  enums.OrderPaymentStatusPending,
			SubtotalAmount: 100000,
			TotalAmount:    99000,
			PromoCodeID:    &promo.ID,
		}
		if err := db.Create(&order).Error; err != nil {
			t.Fatalf("seed %s order: %v", status, err)
		}
	}

	svc := newTestService(t, db)

	// Failed and cancelled orders do not consume the per-user allowance.
	if _, err := svc.Validate(context.Background(), ValidateInput{Code: "ONCE", UserID: user.ID, Subtotal: 100000}); err != nil {
		t.Fatalf("expected dead orders to be ignored, got %v", err)
	}

	live := models.Order{
		UserID:         user.ID,
		OrderNumber:    "INV-20260829-LIVE01",
		Status:         enums.OrderStatusPendingPayment,
		PaymentStatus:  enums.OrderPaymentStatusPending,
		SubtotalAmount: 100000,
		TotalAmount:    99000,
		PromoCodeID:    &promo.ID,
	}
	if err := db.Create(&live).Error; err != nil {
		t.Fatalf("seed live order: %v", err)
	}

	_, err := svc.Validate(context.Background(), ValidateInput{Code: "ONCE", UserID: user.ID, Subtotal: 100000})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidPromo {
		t.Fatalf("expected per-user limit failure, got %v", err)
	}
}

func TestConsumeEnforcesTotalLimit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	promo := seedPromo(t, db, models.PromoCode{
		Code:            "LIMITED",
		DiscountType:    enums.DiscountTypeFixed,
		DiscountValue:   1000,
		TotalUsageLimit: intPtr(2),
		IsActive:        true,
	})

	svc := newTestService(t, db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.Consume(ctx, db, promo.ID); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}
	err := svc.Consume(ctx, db, promo.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidPromo {
		t.Fatalf("expected limit error, got %v", err)
	}

	var reloaded models.PromoCode
	if err := db.First(&reloaded, promo.ID).Error; err != nil {
		t.Fatalf("reload promo: %v", err)
	}
	if reloaded.UsedCount != 2 {
		t.Fatalf("expected used_count 2, got %d", reloaded.UsedCount)
	}
}
