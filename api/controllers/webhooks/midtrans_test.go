package webhooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/internal/orders"
	midtranswebhook "github.com/ihza6661/dua-insan-story-sub002/internal/webhooks/midtrans"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/midtrans"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/outbox"
)

type stubVerifier struct {
	notification *midtrans.Notification
	err          error
}

func (s stubVerifier) ParseNotification(payload []byte) (*midtrans.Notification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.notification, nil
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error { return fn(tx) })
}

func newWebhookService(t *testing.T) (*midtranswebhook.Service, *gorm.DB) {
	t.Helper()
	dsn := "file:webhookctrl_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Order{}, &models.OrderItem{},
		&models.Payment{}, &models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test"})
	svc, err := midtranswebhook.NewService(midtranswebhook.ServiceParams{
		OrdersRepo:        orders.NewRepository(db),
		Outbox:            outbox.NewService(outbox.NewRepository(db), logg),
		TransactionRunner: gormTxRunner{db: db},
		Logger:            logg,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, db
}

func seedPendingOrder(t *testing.T, db *gorm.DB, amount int64) models.Payment {
	t.Helper()
	user := models.User{Name: "Ihza", Email: uuid.NewString() + "@example.test", PasswordHash: "x", Role: enums.UserRoleCustomer}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	order := models.Order{
		UserID:         user.ID,
		OrderNumber:    orders.NewOrderNumber(time.Now()),
		Status:         enums.OrderStatusPendingPayment,
		PaymentStatus:  enums.OrderPaymentStatusPending,
		SubtotalAmount: amount,
		TotalAmount:    amount,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	payment := models.Payment{OrderID: order.ID, Amount: amount, PaymentType: enums.PaymentTypeFull, Status: enums.PaymentStatusPending}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return payment
}

func postNotification(t *testing.T, handler http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/midtrans", strings.NewReader("{}"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestMidtransWebhookAcknowledgesSettlement(t *testing.T) {
	t.Parallel()

	svc, db := newWebhookService(t)
	payment := seedPendingOrder(t, db, 1000000)

	verifier := stubVerifier{notification: &midtrans.Notification{
		OrderID:           midtrans.EncodeOrderID(payment.ID),
		TransactionStatus: midtrans.StatusSettlement,
		TransactionID:     uuid.NewString(),
	}}

	resp := postNotification(t, MidtransWebhook(svc, verifier, nil, nil, logger.New(logger.Options{ServiceName: "test"})))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected ack body: %v", body)
	}

	var reloaded models.Payment
	if err := db.First(&reloaded, payment.ID).Error; err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if reloaded.Status != enums.PaymentStatusPaid {
		t.Fatalf("payment status = %q, want paid", reloaded.Status)
	}
}

func TestMidtransWebhookUnknownPaymentIs404(t *testing.T) {
	t.Parallel()

	svc, _ := newWebhookService(t)

	verifier := stubVerifier{notification: &midtrans.Notification{
		OrderID:           midtrans.EncodeOrderID(987654),
		TransactionStatus: midtrans.StatusSettlement,
		TransactionID:     uuid.NewString(),
	}}

	resp := postNotification(t, MidtransWebhook(svc, verifier, nil, nil, logger.New(logger.Options{ServiceName: "test"})))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Payment not found" {
		t.Fatalf("unexpected body: %v", body)
	}
}

type memoryGuard struct {
	seen map[string]bool
}

func (g *memoryGuard) CheckAndMark(_ context.Context, eventID string) (bool, error) {
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	if g.seen[eventID] {
		return true, nil
	}
	g.seen[eventID] = true
	return false, nil
}

func (g *memoryGuard) Delete(_ context.Context, eventID string) error {
	delete(g.seen, eventID)
	return nil
}

func TestMidtransWebhookDedupScopedPerPayment(t *testing.T) {
	t.Parallel()

	svc, db := newWebhookService(t)
	first := seedPendingOrder(t, db, 500000)
	second := seedPendingOrder(t, db, 750000)
	guard := &memoryGuard{}
	logg := logger.New(logger.Options{ServiceName: "test"})

	// Some channels omit transaction_id; settlements for two different
	// payments must still be treated as distinct events.
	for _, payment := range []models.Payment{first, second} {
		verifier := stubVerifier{notification: &midtrans.Notification{
			OrderID:           midtrans.EncodeOrderID(payment.ID),
			TransactionStatus: midtrans.StatusSettlement,
		}}
		resp := postNotification(t, MidtransWebhook(svc, verifier, guard, nil, logg))
		if resp.Code != http.StatusOK {
			t.Fatalf("payment %d: expected 200 got %d: %s", payment.ID, resp.Code, resp.Body.String())
		}

		var reloaded models.Payment
		if err := db.First(&reloaded, payment.ID).Error; err != nil {
			t.Fatalf("reload payment %d: %v", payment.ID, err)
		}
		if reloaded.Status != enums.PaymentStatusPaid {
			t.Fatalf("payment %d status = %q, want paid (acked as replay?)", payment.ID, reloaded.Status)
		}
	}
}

func TestMidtransWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	svc, _ := newWebhookService(t)
	verifier := stubVerifier{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid signature")}

	resp := postNotification(t, MidtransWebhook(svc, verifier, nil, nil, logger.New(logger.Options{ServiceName: "test"})))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
