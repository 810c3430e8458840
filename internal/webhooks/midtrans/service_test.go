package midtranswebhook

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
	"github.com/ihza6661/dua-insan-story-sub002/pkg/midtrans"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/outbox"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error { return fn(tx) })
}

type harness struct {
	db  *gorm.DB
	svc *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dsn := "file:webhook_" + uuid.NewString() + "?mode=memory&cache=shared"
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
	svc, err := NewService(ServiceParams{
		OrdersRepo:        orders.NewRepository(db),
		Outbox:            outbox.NewService(outbox.NewRepository(db), logg),
		TransactionRunner: gormTxRunner{db: db},
		Logger:            logg,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &harness{db: db, svc: svc}
}

func (h *harness) seedOrder(t *testing.T, total int64, status enums.OrderStatus) models.Order {
	t.Helper()
	user := models.User{Name: "Ihza", Email: uuid.NewString() + "@example.test", PasswordHash: "x", Role: enums.UserRoleCustomer}
	if err := h.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	order := models.Order{
		UserID:         user.ID,
		OrderNumber:    orders.NewOrderNumber(time.Now()),
		Status:         status,
		PaymentStatus:  enums.OrderPaymentStatusPending,
		SubtotalAmount: total,
		TotalAmount:    total,
	}
	if err := h.db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func (h *harness) seedPayment(t *testing.T, orderID int64, pt enums.PaymentType, status enums.PaymentStatus, amount int64) models.Payment {
	t.Helper()
	payment := models.Payment{OrderID: orderID, Amount: amount, PaymentType: pt, Status: status}
	if err := h.db.Create(&payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return payment
}

func notification(paymentID int64, status string) *midtrans.Notification {
	return &midtrans.Notification{
		OrderID:           midtrans.EncodeOrderID(paymentID),
		TransactionStatus: status,
		TransactionID:     uuid.NewString(),
	}
}

func (h *harness) countFinalPayments(t *testing.T, orderID int64) int64 {
	t.Helper()
	var count int64
	err := h.db.Model(&models.Payment{}).
		Where("order_id = ? AND payment_type = ?", orderID, enums.PaymentTypeFinal).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count final payments: %v", err)
	}
	return count
}

func (h *harness) countOutbox(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	err := h.db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", eventType).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	return count
}

func TestProcessFullPaymentSettlement(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	order := h.seedOrder(t, 520000, enums.OrderStatusPendingPayment)
	payment := h.seedPayment(t, order.ID, enums.PaymentTypeFull, enums.PaymentStatusPending, 520000)

	outcome, err := h.svc.Process(context.Background(), notification(payment.ID, midtrans.StatusSettlement))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if outcome != OutcomeSettled {
		t.Fatalf("expected settled, got %q", outcome)
	}

	var reloadedPayment models.Payment
	if err := h.db.First(&reloadedPayment, payment.ID).Error; err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if reloadedPayment.Status != enums.PaymentStatusPaid || reloadedPayment.PaidAt == nil {
		t.Fatalf("unexpected payment state: %+v", reloadedPayment)
	}
	if reloadedPayment.GatewayTransactionID == nil {
		t.Fatalf("expected gateway transaction id recorded")
	}

	var reloadedOrder models.Order
	if err := h.db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloadedOrder.Status != enums.OrderStatusPaid || reloadedOrder.PaymentStatus != enums.OrderPaymentStatusPaid {
		t.Fatalf("unexpected order state: %+v", reloadedOrder)
	}
	if got := h.countOutbox(t, enums.EventOrderPaid); got != 1 {
		t.Fatalf("expected 1 order.paid event, got %d", got)
	}
}

func TestProcessDownPaymentCreatesFinalSlot(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	order := h.seedOrder(t, 1000000, enums.OrderStatusPendingPayment)
	payment := h.seedPayment(t, order.ID, enums.PaymentTypeDP, enums.PaymentStatusPending, 500000)

	outcome, err := h.svc.Process(context.Background(), notification(payment.ID, midtrans.StatusSettlement))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if outcome != OutcomePartiallyPaid {
		t.Fatalf("expected partially paid, got %q", outcome)
	}

	var reloadedOrder models.Order
	if err := h.db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloadedOrder.Status != enums.OrderStatusPartiallyPaid {
		t.Fatalf("expected Partially Paid, got %q", reloadedOrder.Status)
	}
	if reloadedOrder.PaymentStatus != enums.OrderPaymentStatusPartiallyPaid {
		t.Fatalf("expected payment_status partially_paid, got %q", reloadedOrder.PaymentStatus)
	}

	var finalPayment models.Payment
	err = h.db.Where("order_id = ? AND payment_type = ?", order.ID, enums.PaymentTypeFinal).
		First(&finalPayment).Error
	if err != nil {
		t.Fatalf("load final payment: %v", err)
	}
	if finalPayment.Amount != 500000 || finalPayment.Status != enums.PaymentStatusPending {
		t.Fatalf("unexpected final payment: %+v", finalPayment)
	}
	if finalPayment.SnapToken != nil {
		t.Fatalf("final payment must not carry a token yet")
	}
}

func TestProcessReplayIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	order := h.seedOrder(t, 1000000, enums.OrderStatusPendingPayment)
	payment := h.seedPayment(t, order.ID, enums.PaymentTypeDP, enums.PaymentStatusPending, 500000)

	n := notification(payment.ID, midtrans.StatusSettlement)
	ctx := context.Background()

	first, err := h.svc.Process(ctx, n)
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	if first != OutcomePartiallyPaid {
		t.Fatalf("expected partially paid, got %q", first)
	}

	second, err := h.svc.Process(ctx, n)
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if second != OutcomeReplay {
		t.Fatalf("expected replay, got %q", second)
	}

	if got := h.countFinalPayments(t, order.ID); got != 1 {
		t.Fatalf("expected exactly 1 final payment after replay, got %d", got)
	}
	if got := h.countOutbox(t, enums.EventOrderPartiallyPaid); got != 1 {
		t.Fatalf("expected 1 partially-paid event after replay, got %d", got)
	}
}

func TestProcessCaptureWithFraudAccept(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	order := h.seedOrder(t, 200000, enums.OrderStatusPendingPayment)
	payment := h.seedPayment(t, order.ID, enums.PaymentTypeFull, enums.PaymentStatusPending, 200000)

	n := notification(payment.ID, midtrans.StatusCapture)
	n.FraudStatus = midtrans.FraudAccept
	outcome, err := h.svc.Process(context.Background(), n)
	if err != nil || outcome != OutcomeSettled {
		t.Fatalf("expected settled capture, got %q, %v", outcome, err)
	}
}

func TestProcessExpireFailsOrder(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	order := h.seedOrder(t, 200000, enums.OrderStatusPendingPayment)
	payment := h.seedPayment(t, order.ID, enums.PaymentTypeFull, enums.PaymentStatusPending, 200000)

	outcome, err := h.svc.Process(context.Background(), notification(payment.ID, midtrans.StatusExpire))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected failed, got %q", outcome)
	}

	var reloadedOrder models.Order
	if err := h.db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloadedOrder.Status != enums.OrderStatusFailed {
		t.Fatalf("expected Failed, got %q", reloadedOrder.Status)
	}
	if got := h.countOutbox(t, enums.EventOrderFailed); got != 1 {
		t.Fatalf("expected 1 failed event, got %d", got)
	}
}

func TestProcessFinalPaymentExpiryKeepsOrderPartiallyPaid(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	order := h.seedOrder(t, 1000000, enums.OrderStatusPartiallyPaid)
	h.seedPayment(t, order.ID, enums.PaymentTypeDP, enums.PaymentStatusPaid, 500000)
	finalPayment := h.seedPayment(t, order.ID, enums.PaymentTypeFinal, enums.PaymentStatusPending, 500000)

	outcome, err := h.svc.Process(context.Background(), notification(finalPayment.ID, midtrans.StatusExpire))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %q", outcome)
	}

	var reloadedOrder models.Order
	if err := h.db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloadedOrder.Status != enums.OrderStatusPartiallyPaid {
		t.Fatalf("expected order to stay Partially Paid, got %q", reloadedOrder.Status)
	}

	var reloadedPayment models.Payment
	if err := h.db.First(&reloadedPayment, finalPayment.ID).Error; err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if reloadedPayment.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected final payment failed, got %q", reloadedPayment.Status)
	}
}

func TestProcessUnknownPayment(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	outcome, err := h.svc.Process(context.Background(), notification(424242, midtrans.StatusSettlement))
	if outcome != OutcomeNotFound {
		t.Fatalf("expected not found outcome, got %q", outcome)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestProcessMalformedOrderID(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	outcome, err := h.svc.Process(context.Background(), &midtrans.Notification{
		OrderID:           "not-a-payment",
		TransactionStatus: midtrans.StatusSettlement,
	})
	if outcome != OutcomeNotFound {
		t.Fatalf("expected not found, got %q", outcome)
	}
	if pkgerrors.As(err) == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
}

func TestProcessPendingIsIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	order := h.seedOrder(t, 200000, enums.OrderStatusPendingPayment)
	payment := h.seedPayment(t, order.ID, enums.PaymentTypeFull, enums.PaymentStatusPending, 200000)

	outcome, err := h.svc.Process(context.Background(), notification(payment.ID, midtrans.StatusPending))
	if err != nil || outcome != OutcomeIgnored {
		t.Fatalf("expected ignored, got %q, %v", outcome, err)
	}

	var reloadedOrder models.Order
	if err := h.db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloadedOrder.Status != enums.OrderStatusPendingPayment {
		t.Fatalf("expected order untouched, got %q", reloadedOrder.Status)
	}
}
