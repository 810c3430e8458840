package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/pagination"
)

// Repository defines persistence operations for the order aggregate and
// its payment records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64, params pagination.Params) (*OrderList, error)
	UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error
	UpdateOrder(ctx context.Context, orderID int64, updates map[string]any) error

	CreatePayment(ctx context.Context, payment *models.Payment) error
	FindPaymentByID(ctx context.Context, id int64) (*models.Payment, error)
	FindPaymentByIDForUpdate(ctx context.Context, id int64) (*models.Payment, error)
	FindPendingFinalPayment(ctx context.Context, orderID int64) (*models.Payment, error)
	SumPaidAmount(ctx context.Context, orderID int64) (int64, error)
	UpdatePayment(ctx context.Context, paymentID int64, updates map[string]any) error
}

// Service exposes order reads and the owner/admin actions that are not part
// of checkout or webhook processing.
type Service interface {
	Get(ctx context.Context, actor Actor, orderID int64) (*models.Order, error)
	List(ctx context.Context, actor Actor, params pagination.Params) (*OrderList, error)
	Advance(ctx context.Context, input AdvanceInput) (*models.Order, error)
	RetryPayment(ctx context.Context, input PaymentTokenInput) (*PaymentTokenResult, error)
	InitiateFinalPayment(ctx context.Context, input PaymentTokenInput) (*PaymentTokenResult, error)
}
