package invitations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service issues draft digital invitations for paid orders. Issuance is
// idempotent per order item: the unique index on order_item_id makes a
// replayed dispatch a no-op.
type Service struct {
	tx     txRunner
	logger *logger.Logger
}

func NewService(tx txRunner, logg *logger.Logger) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{tx: tx, logger: logg}, nil
}

// IssueForOrder creates one draft invitation per digital order item that
// does not have one yet, and reports how many were created.
func (s *Service) IssueForOrder(ctx context.Context, orderID int64) (int, error) {
	if orderID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	created := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var order models.Order
		err := tx.WithContext(ctx).Preload("Items").First(&order, orderID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return fmt.Errorf("load order: %w", err)
		}

		for _, item := range order.Items {
			if !item.IsDigital {
				continue
			}
			var existing int64
			err := tx.WithContext(ctx).
				Model(&models.Invitation{}).
				Where("order_item_id = ?", item.ID).
				Count(&existing).Error
			if err != nil {
				return fmt.Errorf("check invitation for item %d: %w", item.ID, err)
			}
			if existing > 0 {
				continue
			}
			invitation := models.Invitation{
				OrderID:     order.ID,
				OrderItemID: item.ID,
				Slug:        uuid.NewString(),
				Status:      enums.InvitationStatusDraft,
				TemplateData: &types.InvitationTemplateData{
					SchemaVersion: types.InvitationTemplateSchemaVersion,
				},
			}
			// ux_invitations_order_item_id backstops the existence check
			// against a concurrent dispatch; the whole tx retries then.
			if err := tx.WithContext(ctx).Create(&invitation).Error; err != nil {
				return fmt.Errorf("create invitation for item %d: %w", item.ID, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		s.logger.Info(s.logger.WithOrderID(ctx, orderID),
			fmt.Sprintf("issued %d draft invitation(s)", created))
	}
	return created, nil
}
