package orders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/internal/audit"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/midtrans"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	gateway midtrans.TokenCreator
	users   userFinder
	logger  *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, gateway midtrans.TokenCreator, users userFinder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, gateway: gateway, users: users, logger: logg}, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	if err := requireOwnerOrAdmin(actor, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, actor Actor, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListByUser(ctx, actor.UserID, params)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return list, nil
}

// Advance moves an order one step along the fulfillment chain. The caller
// is already role-checked at the router; the transition itself is still
// validated against the status graph under a row lock.
func (s *service) Advance(ctx context.Context, input AdvanceInput) (*models.Order, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can advance orders")
	}

	var next enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return fmt.Errorf("lock order: %w", err)
		}

		next, err = NextFulfillmentStatus(order.Status)
		if err != nil {
			return err
		}
		if err := CheckTransition(order.Status, next); err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, order.ID, next); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		before := order.Status.String()
		after := next.String()
		return audit.Record(ctx, tx, audit.Entry{
			ActorID:      &input.Actor.UserID,
			Action:       "order.advance",
			EntityType:   audit.EntityOrder,
			EntityID:     order.ID,
			BeforeStatus: &before,
			AfterStatus:  &after,
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logger.WithOrderID(ctx, input.OrderID)
	s.logger.Info(ctx, fmt.Sprintf("order advanced to %s", next))
	return s.repo.FindByID(ctx, input.OrderID)
}

// RetryPayment issues a fresh gateway token for an order whose current
// payment attempt is still open or has failed. A failed row is reopened
// rather than duplicated, so the order keeps a single outstanding attempt
// per slot.
func (s *service) RetryPayment(ctx context.Context, input PaymentTokenInput) (*PaymentTokenResult, error) {
	order, err := s.Get(ctx, input.Actor, input.OrderID)
	if err != nil {
		return nil, err
	}

	var target *models.Payment
	switch order.Status {
	case enums.OrderStatusPendingPayment:
		target = latestRetryablePayment(order.Payments, false)
	case enums.OrderStatusPartiallyPaid:
		target = latestRetryablePayment(order.Payments, true)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %q is not payable", order.Status))
	}
	if target == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no retryable payment")
	}

	return s.issueToken(ctx, order, target)
}

// InitiateFinalPayment returns a token for the outstanding final payment of
// a partially paid order.
func (s *service) InitiateFinalPayment(ctx context.Context, input PaymentTokenInput) (*PaymentTokenResult, error) {
	order, err := s.Get(ctx, input.Actor, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPartiallyPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %q has no final payment due", order.Status))
	}

	payment, err := s.repo.FindPendingFinalPayment(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("find final payment: %w", err)
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending final payment")
	}

	return s.issueToken(ctx, order, payment)
}

// issueToken creates a new gateway transaction for the payment and stores
// the fresh token. Every call regenerates the gateway order id: gateways
// reject order ids they have already seen fail.
func (s *service) issueToken(ctx context.Context, order *models.Order, payment *models.Payment) (*PaymentTokenResult, error) {
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("load order owner: %w", err)
	}

	gatewayOrderID := midtrans.EncodeOrderID(payment.ID)
	token, err := s.gateway.CreateSnapToken(ctx, midtrans.SnapRequest{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:     gatewayOrderID,
			GrossAmount: payment.Amount,
		},
		CustomerDetails: &midtrans.CustomerDetails{
			FirstName: user.Name,
			Email:     user.Email,
		},
	})
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"gateway_order_id": gatewayOrderID,
		"snap_token":       token.Token,
	}
	if payment.Status == enums.PaymentStatusFailed {
		updates["status"] = enums.PaymentStatusPending
	}
	if err := s.repo.UpdatePayment(ctx, payment.ID, updates); err != nil {
		return nil, fmt.Errorf("store snap token: %w", err)
	}

	payment.GatewayOrderID = &gatewayOrderID
	payment.SnapToken = &token.Token
	if payment.Status == enums.PaymentStatusFailed {
		payment.Status = enums.PaymentStatusPending
	}

	ctx = s.logger.WithPaymentID(s.logger.WithOrderID(ctx, order.ID), payment.ID)
	s.logger.Info(ctx, "snap token issued")
	return &PaymentTokenResult{Payment: payment, SnapToken: token.Token}, nil
}

// latestRetryablePayment picks the newest pending or failed payment for
// the slot in play: the initial payment before any money lands, the final
// payment once the order is partially paid. Payments are preloaded in
// creation order.
func latestRetryablePayment(payments []models.Payment, finalSlot bool) *models.Payment {
	for i := len(payments) - 1; i >= 0; i-- {
		p := payments[i]
		if (p.PaymentType == enums.PaymentTypeFinal) != finalSlot {
			continue
		}
		if p.Status == enums.PaymentStatusPending || p.Status == enums.PaymentStatusFailed {
			return &payments[i]
		}
	}
	return nil
}

func requireOwnerOrAdmin(actor Actor, ownerID int64) error {
	if actor.IsAdmin() || actor.UserID == ownerID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
}
