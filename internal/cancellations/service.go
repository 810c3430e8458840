package cancellations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/internal/audit"
	"github.com/ihza6661/dua-insan-story-sub002/internal/inventory"
	"github.com/ihza6661/dua-insan-story-sub002/internal/orders"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/outbox"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/outbox/payloads"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/types"
)

const minReasonLength = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockRestorer interface {
	Restore(ctx context.Context, tx *gorm.DB, requests []inventory.Reservation) error
}

type restoreEngine struct{}

func (restoreEngine) Restore(ctx context.Context, tx *gorm.DB, requests []inventory.Reservation) error {
	return inventory.Restore(ctx, tx, requests)
}

// CreateInput is a customer's cancellation request.
type CreateInput struct {
	OrderID int64
	Actor   orders.Actor
	Reason  string
}

// DecisionInput is an admin's terminal approve/reject call.
type DecisionInput struct {
	RequestID    int64
	Actor        orders.Actor
	Notes        string
	RefundAmount *int64
}

type service struct {
	repo            Repository
	ordersRepo      orders.Repository
	tx              txRunner
	outbox          outboxPublisher
	stock           stockRestorer
	allowedStatuses []enums.OrderStatus
	logger          *logger.Logger
}

// NewService builds the cancellation workflow service. allowedStatuses is
// the pre-production set of order statuses a customer may still cancel
// from.
func NewService(
	repo Repository,
	ordersRepo orders.Repository,
	tx txRunner,
	publisher outboxPublisher,
	stock stockRestorer,
	allowedStatuses []enums.OrderStatus,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cancellations repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if stock == nil {
		stock = restoreEngine{}
	}
	if len(allowedStatuses) == 0 {
		return nil, fmt.Errorf("allowed statuses required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:            repo,
		ordersRepo:      ordersRepo,
		tx:              tx,
		outbox:          publisher,
		stock:           stock,
		allowedStatuses: allowedStatuses,
		logger:          logg,
	}, nil
}

func (s *service) GetForOrder(ctx context.Context, actor orders.Actor, orderID int64) (*models.CancellationRequest, error) {
	order, err := s.loadOrder(ctx, s.ordersRepo, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.UserID != order.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	request, err := s.repo.FindLatestByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load cancellation request: %w", err)
	}
	if request == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no cancellation request for this order")
	}
	return request, nil
}

// Create inserts a pending request. The order itself is not mutated until
// an admin approves.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.CancellationRequest, error) {
	reason := strings.TrimSpace(input.Reason)
	if len(reason) < minReasonLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("reason must be at least %d characters", minReasonLength))
	}

	var request *models.CancellationRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		repo := s.repo.WithTx(tx)

		order, err := s.lockOrder(ctx, ordersRepo, input.OrderID)
		if err != nil {
			return err
		}
		if order.UserID != input.Actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}
		if !s.cancellable(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %q can no longer be cancelled", order.Status))
		}

		pending, err := repo.HasPendingForOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("check pending requests: %w", err)
		}
		if pending {
			return pkgerrors.New(pkgerrors.CodeConflict, "a cancellation request is already pending for this order")
		}

		request = &models.CancellationRequest{
			OrderID:       order.ID,
			RequestedByID: input.Actor.UserID,
			Reason:        reason,
			Status:        enums.CancellationStatusPending,
			RefundStatus:  enums.RefundStatusNone,
		}
		if err := repo.Create(ctx, request); err != nil {
			return fmt.Errorf("create cancellation request: %w", err)
		}

		return audit.Record(ctx, tx, audit.Entry{
			ActorID:    &input.Actor.UserID,
			Action:     "cancellation.request",
			EntityType: audit.EntityCancellationRequest,
			EntityID:   request.ID,
			Properties: types.JSONMap{"order_id": order.ID, "reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.logger.WithOrderID(ctx, input.OrderID), "cancellation requested")
	return request, nil
}

// Approve is terminal: it restores stock, cancels the order, and records
// the refund bookkeeping in one transaction.
func (s *service) Approve(ctx context.Context, input DecisionInput) (*models.CancellationRequest, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can review cancellation requests")
	}

	var orderID int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		request, err := s.lockPendingRequest(ctx, repo, input.RequestID)
		if err != nil {
			return err
		}
		orderID = request.OrderID

		order, err := s.lockOrder(ctx, ordersRepo, request.OrderID)
		if err != nil {
			return err
		}
		if err := orders.CheckTransition(order.Status, enums.OrderStatusCancelled); err != nil {
			return err
		}

		full, err := ordersRepo.FindByID(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("load order items: %w", err)
		}
		restores := make([]inventory.Reservation, 0, len(full.Items))
		for _, item := range full.Items {
			restores = append(restores, inventory.Reservation{VariantID: item.VariantID, Qty: item.Quantity})
		}
		if err := s.stock.Restore(ctx, tx, restores); err != nil {
			return err
		}

		if err := ordersRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}

		now := time.Now()
		updates := map[string]any{
			"status":         enums.CancellationStatusApproved,
			"reviewed_by_id": input.Actor.UserID,
			"reviewed_at":    now,
			"stock_restored": true,
		}
		if notes := strings.TrimSpace(input.Notes); notes != "" {
			updates["admin_notes"] = notes
		}
		if input.RefundAmount != nil && *input.RefundAmount > 0 {
			updates["refund_amount"] = *input.RefundAmount
			updates["refund_status"] = enums.RefundStatusPending
		}
		if err := repo.Update(ctx, request.ID, updates); err != nil {
			return fmt.Errorf("update cancellation request: %w", err)
		}

		before := request.Status.String()
		after := enums.CancellationStatusApproved.String()
		err = audit.Record(ctx, tx, audit.Entry{
			ActorID:      &input.Actor.UserID,
			Action:       "cancellation.approve",
			EntityType:   audit.EntityCancellationRequest,
			EntityID:     request.ID,
			BeforeStatus: &before,
			AfterStatus:  &after,
			Properties:   types.JSONMap{"order_id": order.ID, "refund_amount": input.RefundAmount},
		})
		if err != nil {
			return err
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: input.Actor.Role.String()},
			Data: payloads.OrderCancelledEvent{
				OrderID:      order.ID,
				UserID:       order.UserID,
				RequestID:    request.ID,
				RefundAmount: input.RefundAmount,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.logger.WithOrderID(ctx, orderID), "cancellation approved")
	return s.repo.FindByID(ctx, input.RequestID)
}

// Reject is terminal and touches neither stock nor the order.
func (s *service) Reject(ctx context.Context, input DecisionInput) (*models.CancellationRequest, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can review cancellation requests")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := s.lockPendingRequest(ctx, repo, input.RequestID)
		if err != nil {
			return err
		}

		now := time.Now()
		updates := map[string]any{
			"status":         enums.CancellationStatusRejected,
			"reviewed_by_id": input.Actor.UserID,
			"reviewed_at":    now,
		}
		if notes := strings.TrimSpace(input.Notes); notes != "" {
			updates["admin_notes"] = notes
		}
		if err := repo.Update(ctx, request.ID, updates); err != nil {
			return fmt.Errorf("update cancellation request: %w", err)
		}

		before := request.Status.String()
		after := enums.CancellationStatusRejected.String()
		return audit.Record(ctx, tx, audit.Entry{
			ActorID:      &input.Actor.UserID,
			Action:       "cancellation.reject",
			EntityType:   audit.EntityCancellationRequest,
			EntityID:     request.ID,
			BeforeStatus: &before,
			AfterStatus:  &after,
			Properties:   types.JSONMap{"order_id": request.OrderID},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, input.RequestID)
}

func (s *service) cancellable(status enums.OrderStatus) bool {
	for _, allowed := range s.allowedStatuses {
		if allowed == status {
			return true
		}
	}
	return false
}

func (s *service) lockPendingRequest(ctx context.Context, repo Repository, requestID int64) (*models.CancellationRequest, error) {
	request, err := repo.FindByIDForUpdate(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cancellation request not found")
		}
		return nil, fmt.Errorf("lock cancellation request: %w", err)
	}
	if request.Status != enums.CancellationStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancellation request already reviewed").
			WithDetails(map[string]any{"status": request.Status.String()})
	}
	return request, nil
}

func (s *service) loadOrder(ctx context.Context, repo orders.Repository, orderID int64) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}

func (s *service) lockOrder(ctx context.Context, repo orders.Repository, orderID int64) (*models.Order, error) {
	order, err := repo.FindByIDForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return order, nil
}
