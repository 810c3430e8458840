package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/pagination"
)

func TestListByUserPaginates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	user := seedUser(t, db, enums.UserRoleCustomer)
	other := seedUser(t, db, enums.UserRoleCustomer)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		order := seedOrder(t, db, user.ID, enums.OrderStatusPendingPayment)
		// spread created_at so the cursor ordering is deterministic
		require.NoError(t, db.Model(&order).UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}
	seedOrder(t, db, other.ID, enums.OrderStatusPendingPayment)

	first, err := repo.ListByUser(context.Background(), user.ID, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Orders, 3)
	require.NotEmpty(t, first.NextCursor)
	// newest first
	assert.True(t, first.Orders[0].CreatedAt.After(first.Orders[1].CreatedAt))

	second, err := repo.ListByUser(context.Background(), user.ID, pagination.Params{Limit: 3, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 2)
	assert.Empty(t, second.NextCursor)

	seen := map[int64]bool{}
	for _, order := range append(first.Orders, second.Orders...) {
		assert.Equal(t, user.ID, order.UserID)
		assert.False(t, seen[order.ID], "order %d returned twice", order.ID)
		seen[order.ID] = true
	}
}

func TestSumPaidAmount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	user := seedUser(t, db, enums.UserRoleCustomer)
	order := seedOrder(t, db, user.ID, enums.OrderStatusPartiallyPaid)

	seedPayment(t, db, order.ID, enums.PaymentTypeDP, enums.PaymentStatusPaid, 300000)
	seedPayment(t, db, order.ID, enums.PaymentTypeFinal, enums.PaymentStatusPending, 700000)
	seedPayment(t, db, order.ID, enums.PaymentTypeFinal, enums.PaymentStatusFailed, 700000)

	paid, err := repo.SumPaidAmount(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), paid)

	none, err := repo.SumPaidAmount(context.Background(), order.ID+99)
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestFindPendingFinalPayment(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	user := seedUser(t, db, enums.UserRoleCustomer)
	order := seedOrder(t, db, user.ID, enums.OrderStatusPartiallyPaid)

	missing, err := repo.FindPendingFinalPayment(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	seedPayment(t, db, order.ID, enums.PaymentTypeDP, enums.PaymentStatusPaid, 300000)
	final := seedPayment(t, db, order.ID, enums.PaymentTypeFinal, enums.PaymentStatusPending, 700000)

	found, err := repo.FindPendingFinalPayment(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, final.ID, found.ID)
}
