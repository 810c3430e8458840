package cancellations

import (
	"context"

	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/internal/orders"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
)

// Repository defines persistence operations for cancellation requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.CancellationRequest) error
	FindByID(ctx context.Context, id int64) (*models.CancellationRequest, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*models.CancellationRequest, error)
	FindLatestByOrder(ctx context.Context, orderID int64) (*models.CancellationRequest, error)
	HasPendingForOrder(ctx context.Context, orderID int64) (bool, error)
	Update(ctx context.Context, requestID int64, updates map[string]any) error
}

// Service runs the customer-request / admin-review cancellation workflow.
type Service interface {
	GetForOrder(ctx context.Context, actor orders.Actor, orderID int64) (*models.CancellationRequest, error)
	Create(ctx context.Context, input CreateInput) (*models.CancellationRequest, error)
	Approve(ctx context.Context, input DecisionInput) (*models.CancellationRequest, error)
	Reject(ctx context.Context, input DecisionInput) (*models.CancellationRequest, error)
}
