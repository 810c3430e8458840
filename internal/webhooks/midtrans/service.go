package midtranswebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/internal/orders"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/midtrans"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/outbox"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/outbox/payloads"
)

// Outcome labels how a notification was resolved; exported for metrics.
type Outcome string

const (
	OutcomeSettled       Outcome = "settled"
	OutcomePartiallyPaid Outcome = "partially_paid"
	OutcomeFailed        Outcome = "failed"
	OutcomeReplay        Outcome = "replay"
	OutcomeIgnored       Outcome = "ignored"
	OutcomeNotFound      Outcome = "not_found"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams wires the reconciler dependencies.
type ServiceParams struct {
	OrdersRepo        orders.Repository
	Outbox            outboxPublisher
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Service applies gateway notifications to the Payment/Order pair. All
// mutations for one notification happen inside a single transaction with
// the payment row locked, so concurrent redeliveries serialize and replays
// become no-ops.
type Service struct {
	ordersRepo orders.Repository
	outbox     outboxPublisher
	txRunner   txRunner
	logger     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox publisher required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		ordersRepo: params.OrdersRepo,
		outbox:     params.Outbox,
		txRunner:   params.TransactionRunner,
		logger:     params.Logger,
	}, nil
}

// Process reconciles one verified notification. It returns NotFound via a
// typed error when the referenced payment does not exist; every other path
// resolves without error so the controller can always acknowledge the
// gateway.
func (s *Service) Process(ctx context.Context, n *midtrans.Notification) (Outcome, error) {
	if n == nil {
		return OutcomeIgnored, pkgerrors.New(pkgerrors.CodeValidation, "notification required")
	}

	paymentID, err := midtrans.DecodePaymentID(n.OrderID)
	if err != nil {
		// A malformed order id references nothing we can fix; the gateway
		// must not retry it.
		return OutcomeNotFound, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	ctx = s.logger.WithPaymentID(ctx, paymentID)

	outcome := OutcomeIgnored
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)

		payment, err := repo.FindPaymentByIDForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return fmt.Errorf("lock payment: %w", err)
		}

		switch {
		case n.Succeeded():
			outcome, err = s.applySuccess(ctx, repo, tx, payment, n)
		case n.Failed():
			outcome, err = s.applyFailure(ctx, repo, tx, payment, n)
		default:
			// pending, refund and other statuses carry no transition here
			outcome = OutcomeIgnored
		}
		return err
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return OutcomeNotFound, err
		}
		return outcome, err
	}
	return outcome, nil
}

func (s *Service) applySuccess(ctx context.Context, repo orders.Repository, tx *gorm.DB, payment *models.Payment, n *midtrans.Notification) (Outcome, error) {
	if payment.Status.IsTerminal() {
		s.logger.Info(ctx, "notification replayed for settled payment")
		return OutcomeReplay, nil
	}

	order, err := repo.FindByIDForUpdate(ctx, payment.OrderID)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("lock order: %w", err)
	}

	target := enums.OrderStatusPaid
	if payment.PaymentType == enums.PaymentTypeDP {
		target = enums.OrderStatusPartiallyPaid
	}
	if !orders.CanTransition(order.Status, target) {
		s.logger.Warn(ctx, fmt.Sprintf("order in status %q cannot accept settlement, ignoring", order.Status))
		return OutcomeIgnored, nil
	}

	now := time.Now()
	updates := map[string]any{
		"status":  enums.PaymentStatusPaid,
		"paid_at": now,
	}
	if n.TransactionID != "" {
		updates["gateway_transaction_id"] = n.TransactionID
	}
	if err := repo.UpdatePayment(ctx, payment.ID, updates); err != nil {
		return OutcomeIgnored, fmt.Errorf("mark payment paid: %w", err)
	}
	payment.Status = enums.PaymentStatusPaid

	if payment.PaymentType == enums.PaymentTypeDP {
		return s.settleDownPayment(ctx, repo, tx, order, payment)
	}
	return s.settleOrder(ctx, repo, tx, order, payment)
}

// settleDownPayment moves the order to Partially Paid and opens the final
// payment slot for the remaining balance.
func (s *Service) settleDownPayment(ctx context.Context, repo orders.Repository, tx *gorm.DB, order *models.Order, payment *models.Payment) (Outcome, error) {
	paid, err := repo.SumPaidAmount(ctx, order.ID)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("sum paid amount: %w", err)
	}
	remaining := order.TotalAmount - paid
	if remaining <= 0 {
		// dp covered the whole total; nothing left to invoice
		return s.settleOrder(ctx, repo, tx, order, payment)
	}

	finalPayment := &models.Payment{
		OrderID:     order.ID,
		Amount:      remaining,
		PaymentType: enums.PaymentTypeFinal,
		Status:      enums.PaymentStatusPending,
	}
	if err := repo.CreatePayment(ctx, finalPayment); err != nil {
		return OutcomeIgnored, fmt.Errorf("create final payment: %w", err)
	}

	err = repo.UpdateOrder(ctx, order.ID, map[string]any{
		"status":         enums.OrderStatusPartiallyPaid,
		"payment_status": enums.OrderPaymentStatusPartiallyPaid,
	})
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("update order: %w", err)
	}

	err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPartiallyPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderPartiallyPaidEvent{
			OrderID:        order.ID,
			UserID:         order.UserID,
			PaymentID:      payment.ID,
			AmountPaid:     payment.Amount,
			RemainingDue:   remaining,
			FinalPaymentID: finalPayment.ID,
		},
	})
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("emit partially paid event: %w", err)
	}

	s.logger.Info(s.logger.WithOrderID(ctx, order.ID), "down payment settled")
	return OutcomePartiallyPaid, nil
}

// settleOrder moves the order to Paid and enqueues the post-payment side
// effects exactly once.
func (s *Service) settleOrder(ctx context.Context, repo orders.Repository, tx *gorm.DB, order *models.Order, payment *models.Payment) (Outcome, error) {
	err := repo.UpdateOrder(ctx, order.ID, map[string]any{
		"status":         enums.OrderStatusPaid,
		"payment_status": enums.OrderPaymentStatusPaid,
	})
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("update order: %w", err)
	}

	err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderPaidEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			PaymentID:   payment.ID,
			PaymentType: payment.PaymentType.String(),
			Amount:      payment.Amount,
		},
	})
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("emit paid event: %w", err)
	}

	s.logger.Info(s.logger.WithOrderID(ctx, order.ID), "order fully paid")
	return OutcomeSettled, nil
}

func (s *Service) applyFailure(ctx context.Context, repo orders.Repository, tx *gorm.DB, payment *models.Payment, n *midtrans.Notification) (Outcome, error) {
	if payment.Status == enums.PaymentStatusFailed {
		s.logger.Info(ctx, "notification replayed for failed payment")
		return OutcomeReplay, nil
	}
	if payment.Status.IsTerminal() {
		// A paid payment cannot fail retroactively; keep the settled
		// state and acknowledge the redelivery.
		s.logger.Warn(ctx, fmt.Sprintf("ignoring %s notification for %s payment", n.TransactionStatus, payment.Status))
		return OutcomeReplay, nil
	}

	if err := repo.UpdatePayment(ctx, payment.ID, map[string]any{"status": enums.PaymentStatusFailed}); err != nil {
		return OutcomeIgnored, fmt.Errorf("mark payment failed: %w", err)
	}

	order, err := repo.FindByIDForUpdate(ctx, payment.OrderID)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("lock order: %w", err)
	}
	if payment.PaymentType == enums.PaymentTypeFinal {
		// The down payment is already banked; the order stays Partially
		// Paid and the customer retries the final payment.
		s.logger.Warn(s.logger.WithOrderID(ctx, order.ID),
			fmt.Sprintf("final payment %s, order stays %q", n.TransactionStatus, order.Status))
		return OutcomeFailed, nil
	}
	if !orders.CanTransition(order.Status, enums.OrderStatusFailed) {
		s.logger.Warn(s.logger.WithOrderID(ctx, order.ID),
			fmt.Sprintf("payment failed but order stays %q", order.Status))
		return OutcomeFailed, nil
	}
	if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusFailed); err != nil {
		return OutcomeIgnored, fmt.Errorf("update order: %w", err)
	}

	err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderFailed,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderFailedEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			PaymentID: payment.ID,
			Reason:    n.TransactionStatus,
		},
	})
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("emit failed event: %w", err)
	}

	s.logger.Info(s.logger.WithOrderID(ctx, order.ID), "order marked failed")
	return OutcomeFailed, nil
}
