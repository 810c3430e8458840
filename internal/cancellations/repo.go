package cancellations

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cancellation request repository bound to the
// provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.CancellationRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.CancellationRequest, error) {
	var request models.CancellationRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindByIDForUpdate locks the request row so concurrent admin decisions
// serialize on the terminal-state guard.
func (r *repository) FindByIDForUpdate(ctx context.Context, id int64) (*models.CancellationRequest, error) {
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var request models.CancellationRequest
	err := query.Where("id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindLatestByOrder(ctx context.Context, orderID int64) (*models.CancellationRequest, error) {
	var request models.CancellationRequest
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC, id DESC").
		First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) HasPendingForOrder(ctx context.Context, orderID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CancellationRequest{}).
		Where("order_id = ? AND status = ?", orderID, enums.CancellationStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Update(ctx context.Context, requestID int64, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.CancellationRequest{}).
		Where("id = ?", requestID).
		Updates(updates).Error
}
