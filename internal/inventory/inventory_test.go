package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.ProductVariant{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedVariant(t *testing.T, db *gorm.DB, stock int) int64 {
	t.Helper()
	product := models.Product{Name: "Classic Invitation"}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.ProductVariant{ProductID: product.ID, Name: "A5 / 100 pcs", Price: 250000, Stock: stock}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant.ID
}

func TestReserve(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variantID := seedVariant(t, db, 5)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Reservation{{VariantID: variantID, Qty: 3}})
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var variant models.ProductVariant
	if err := db.First(&variant, variantID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Stock != 2 {
		t.Fatalf("expected stock 2, got %d", variant.Stock)
	}
}

func TestReserveInsufficientStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variantID := seedVariant(t, db, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Reservation{{VariantID: variantID, Qty: 3}})
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("expected out-of-stock error, got %v", err)
	}

	// The failed transaction must not have touched the counter.
	var variant models.ProductVariant
	if err := db.First(&variant, variantID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Stock != 2 {
		t.Fatalf("expected stock unchanged at 2, got %d", variant.Stock)
	}
}

func TestReserveBatchAbortsOnFirstShortage(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	plenty := seedVariant(t, db, 10)
	scarce := seedVariant(t, db, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Reservation{
			{VariantID: plenty, Qty: 4},
			{VariantID: scarce, Qty: 2},
		})
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("expected out-of-stock error, got %v", err)
	}

	// Rollback must restore the first variant too.
	var variant models.ProductVariant
	if err := db.First(&variant, plenty).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Stock != 10 {
		t.Fatalf("expected stock rolled back to 10, got %d", variant.Stock)
	}
}

func TestReserveInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	variantID := seedVariant(t, db, 5)

	err := Reserve(context.Background(), db, []Reservation{{VariantID: variantID, Qty: 0}})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRestore(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variantID := seedVariant(t, db, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Restore(ctx, tx, []Reservation{
			{VariantID: variantID, Qty: 3},
			{VariantID: 999999, Qty: 1}, // deleted variant is skipped
		})
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	var variant models.ProductVariant
	if err := db.First(&variant, variantID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Stock != 5 {
		t.Fatalf("expected stock 5, got %d", variant.Stock)
	}
}
