package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ihza6661/dua-insan-story-sub002/internal/inventory"
	"github.com/ihza6661/dua-insan-story-sub002/internal/orders"
	"github.com/ihza6661/dua-insan-story-sub002/internal/promos"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/enums"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/midtrans"
)

const orderNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type promoValidator interface {
	Validate(ctx context.Context, input promos.ValidateInput) (*promos.ValidationResult, error)
	Consume(ctx context.Context, tx *gorm.DB, promoCodeID int64) error
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.Reservation) error
}

type userFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.Reservation) error {
	return inventory.Reserve(ctx, tx, requests)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, input Input) (*Result, error)
}

type service struct {
	tx          txRunner
	ordersRepo  orders.Repository
	promoSvc    promoValidator
	reservation reservationRunner
	gateway     midtrans.TokenCreator
	users       userFinder
	logger      *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	promoSvc promoValidator,
	reservation reservationRunner,
	gateway midtrans.TokenCreator,
	users userFinder,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if promoSvc == nil {
		return nil, fmt.Errorf("promo service required")
	}
	if reservation == nil {
		reservation = reservationEngine{}
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
	return &service{
		tx:          tx,
		ordersRepo:  ordersRepo,
		promoSvc:    promoSvc,
		reservation: reservation,
		gateway:     gateway,
		users:       users,
		logger:      logg,
	}, nil
}

// Execute turns the submitted cart into an Order plus its initial Payment
// inside one transaction, then requests a gateway token outside the
// transaction. A token failure leaves the order intact and payable later;
// it surfaces as a dependency error returned together with the committed
// order so the caller can point the client at the retry endpoint.
func (s *service) Execute(ctx context.Context, input Input) (*Result, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var (
		order   *models.Order
		payment *models.Payment
	)

	// The whole transaction is retried when the generated order number
	// collides; the random tail makes more than one retry unlikely.
	for attempt := 0; ; attempt++ {
		order = nil
		payment = nil
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			created, createdPayment, err := s.createOrder(ctx, tx, input)
			if err != nil {
				return err
			}
			order = created
			payment = createdPayment
			return nil
		})
		if err == nil {
			break
		}
		if db.IsUniqueViolation(err, "order_number") && attempt < orderNumberAttempts-1 {
			continue
		}
		return nil, err
	}

	result := &Result{Order: order, Payment: payment}

	ctx = s.logger.WithPaymentID(s.logger.WithOrderID(ctx, order.ID), payment.ID)
	token, err := s.requestToken(ctx, order, payment)
	if err != nil {
		// The order is committed and stays payable through the
		// retry-payment endpoint.
		s.logger.Error(ctx, "snap token request failed after checkout", err)
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment token unavailable, retry payment for this order")
	}
	result.SnapToken = token
	s.logger.Info(ctx, "checkout completed")
	return result, nil
}

func (s *service) createOrder(ctx context.Context, tx *gorm.DB, input Input) (*models.Order, *models.Payment, error) {
	ordersRepo := s.ordersRepo.WithTx(tx)

	variants, err := loadVariants(ctx, tx, input.Items)
	if err != nil {
		return nil, nil, err
	}

	items := make([]models.OrderItem, len(input.Items))
	reservations := make([]inventory.Reservation, len(input.Items))
	var subtotal int64
	for i, line := range input.Items {
		variant := variants[line.VariantID]
		lineTotal := variant.Price * int64(line.Qty)
		subtotal += lineTotal
		items[i] = models.OrderItem{
			VariantID:   variant.ID,
			ProductName: variant.Product.Name,
			VariantName: variant.Name,
			IsDigital:   variant.Product.IsDigital,
			Quantity:    line.Qty,
			UnitPrice:   variant.Price,
			SubTotal:    lineTotal,
		}
		reservations[i] = inventory.Reservation{VariantID: variant.ID, Qty: line.Qty}
	}

	var (
		discount    int64
		promoCodeID *int64
	)
	if input.PromoCode != "" {
		validated, err := s.promoSvc.Validate(ctx, promos.ValidateInput{
			Code:     input.PromoCode,
			UserID:   input.UserID,
			Subtotal: subtotal,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := s.promoSvc.Consume(ctx, tx, validated.PromoCode.ID); err != nil {
			return nil, nil, err
		}
		discount = validated.DiscountAmount
		promoCodeID = &validated.PromoCode.ID
	}

	total := subtotal - discount + input.ShippingCost
	initialAmount := initialPaymentAmount(total, input.PaymentOption)

	if err := s.reservation.Reserve(ctx, tx, reservations); err != nil {
		return nil, nil, err
	}

	order := &models.Order{
		UserID:         input.UserID,
		OrderNumber:    orders.NewOrderNumber(time.Now()),
		Status:         enums.OrderStatusPendingPayment,
		PaymentStatus:  enums.OrderPaymentStatusPending,
		SubtotalAmount: subtotal,
		DiscountAmount: discount,
		ShippingCost:   input.ShippingCost,
		ShippingMethod: input.ShippingMethod,
		TotalAmount:    total,
		PromoCodeID:    promoCodeID,
		Items:          items,
	}
	if err := ordersRepo.Create(ctx, order); err != nil {
		return nil, nil, err
	}

	payment := &models.Payment{
		OrderID:     order.ID,
		Amount:      initialAmount,
		PaymentType: input.PaymentOption.PaymentType(),
		Status:      enums.PaymentStatusPending,
	}
	if err := ordersRepo.CreatePayment(ctx, payment); err != nil {
		return nil, nil, fmt.Errorf("create payment: %w", err)
	}
	return order, payment, nil
}

func (s *service) requestToken(ctx context.Context, order *models.Order, payment *models.Payment) (string, error) {
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		return "", fmt.Errorf("load order owner: %w", err)
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
		return "", err
	}

	err = s.ordersRepo.UpdatePayment(ctx, payment.ID, map[string]any{
		"gateway_order_id": gatewayOrderID,
		"snap_token":       token.Token,
	})
	if err != nil {
		return "", fmt.Errorf("store snap token: %w", err)
	}
	payment.GatewayOrderID = &gatewayOrderID
	payment.SnapToken = &token.Token
	return token.Token, nil
}

// loadVariants resolves every distinct variant with its product and fails
// when any line references an unknown variant.
func loadVariants(ctx context.Context, tx *gorm.DB, lines []Item) (map[int64]*models.ProductVariant, error) {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	for _, line := range lines {
		if !seen[line.VariantID] {
			seen[line.VariantID] = true
			ids = append(ids, line.VariantID)
		}
	}

	var rows []models.ProductVariant
	err := tx.WithContext(ctx).
		Preload("Product").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load variants: %w", err)
	}

	variants := make(map[int64]*models.ProductVariant, len(rows))
	for i := range rows {
		variants[rows[i].ID] = &rows[i]
	}
	for _, id := range ids {
		if variants[id] == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product variant").
				WithDetails(map[string]any{"variant_id": id})
		}
	}
	return variants, nil
}

// initialPaymentAmount computes the first payment from the payment option
// percentage, truncated to whole rupiah.
func initialPaymentAmount(total int64, option enums.PaymentOption) int64 {
	percent := option.InitialPercent()
	if percent >= 100 {
		return total
	}
	return decimal.NewFromInt(total).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		IntPart()
}

func validateInput(input Input) error {
	if input.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout requires at least one item")
	}
	for _, line := range input.Items {
		if line.VariantID <= 0 || line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "every item needs a variant and a positive quantity")
		}
	}
	if input.ShippingCost < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
	}
	if !input.PaymentOption.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment option")
	}
	return nil
}
