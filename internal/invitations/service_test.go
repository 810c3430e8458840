package invitations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/internal/orders"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error { return fn(tx) })
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:invitations_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Order{}, &models.OrderItem{}, &models.Invitation{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	svc, err := NewService(gormTxRunner{db: db}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedPaidOrder(t *testing.T, db *gorm.DB) models.Order {
	t.Helper()
	user := models.User{Name: "Ihza", Email: uuid.NewString() + "@example.test", PasswordHash: "x", Role: enums.UserRoleCustomer}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	order := models.Order{
		UserID:         user.ID,
		OrderNumber:    orders.NewOrderNumber(time.Now()),
		Status:         enums.OrderStatusPaid,
		PaymentStatus:  enums.OrderPaymentStatusPaid,
		SubtotalAmount: 300000,
		TotalAmount:    300000,
		Items: []models.OrderItem{
			{VariantID: 1, ProductName: "Digital Invitation", VariantName: "Premium", IsDigital: true, Quantity: 1, UnitPrice: 150000, SubTotal: 150000},
			{VariantID: 2, ProductName: "Printed Invitation", VariantName: "A5", IsDigital: false, Quantity: 1, UnitPrice: 150000, SubTotal: 150000},
		},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestIssueForOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	order := seedPaidOrder(t, db)
	svc := newTestService(t, db)

	created, err := svc.IssueForOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 invitation for the digital item, got %d", created)
	}

	var invitation models.Invitation
	if err := db.Where("order_id = ?", order.ID).First(&invitation).Error; err != nil {
		t.Fatalf("load invitation: %v", err)
	}
	if invitation.Status != enums.InvitationStatusDraft || invitation.Slug == "" {
		t.Fatalf("unexpected invitation: %+v", invitation)
	}
	if invitation.TemplateData == nil || invitation.TemplateData.SchemaVersion == 0 {
		t.Fatalf("expected versioned template data, got %+v", invitation.TemplateData)
	}
}

func TestIssueForOrderIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	order := seedPaidOrder(t, db)
	svc := newTestService(t, db)

	if _, err := svc.IssueForOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	created, err := svc.IssueForOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected no new invitations on replay, got %d", created)
	}

	var count int64
	db.Model(&models.Invitation{}).Where("order_id = ?", order.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly 1 invitation, got %d", count)
	}
}

func TestIssueForUnknownOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.IssueForOrder(context.Background(), 999)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
