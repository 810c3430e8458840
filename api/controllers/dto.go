package controllers

import (
	"time"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/db/models"
)

type orderResponse struct {
	OrderID        int64             `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	Status         string            `json:"status"`
	PaymentStatus  string            `json:"payment_status"`
	SubtotalAmount int64             `json:"subtotal_amount"`
	DiscountAmount int64             `json:"discount_amount"`
	ShippingCost   int64             `json:"shipping_cost"`
	ShippingMethod string            `json:"shipping_method"`
	TotalAmount    int64             `json:"total_amount"`
	Items          []itemResponse    `json:"items"`
	Payments       []paymentResponse `json:"payments,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

type itemResponse struct {
	ItemID      int64  `json:"item_id"`
	VariantID   int64  `json:"variant_id"`
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name"`
	IsDigital   bool   `json:"is_digital"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	SubTotal    int64  `json:"sub_total"`
}

type paymentResponse struct {
	PaymentID   int64      `json:"payment_id"`
	Amount      int64      `json:"amount"`
	PaymentType string     `json:"payment_type"`
	Status      string     `json:"status"`
	SnapToken   *string    `json:"snap_token,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type cancellationResponse struct {
	RequestID    int64      `json:"request_id"`
	OrderID      int64      `json:"order_id"`
	Status       string     `json:"status"`
	Reason       string     `json:"reason"`
	AdminNotes   *string    `json:"admin_notes,omitempty"`
	RefundAmount *int64     `json:"refund_amount,omitempty"`
	RefundStatus string     `json:"refund_status"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         string(order.Status),
		PaymentStatus:  string(order.PaymentStatus),
		SubtotalAmount: order.SubtotalAmount,
		DiscountAmount: order.DiscountAmount,
		ShippingCost:   order.ShippingCost,
		ShippingMethod: order.ShippingMethod,
		TotalAmount:    order.TotalAmount,
		CreatedAt:      order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, itemResponse{
			ItemID:      item.ID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			IsDigital:   item.IsDigital,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			SubTotal:    item.SubTotal,
		})
	}
	for _, payment := range order.Payments {
		resp.Payments = append(resp.Payments, newPaymentResponse(&payment))
	}
	return resp
}

func newPaymentResponse(payment *models.Payment) paymentResponse {
	return paymentResponse{
		PaymentID:   payment.ID,
		Amount:      payment.Amount,
		PaymentType: string(payment.PaymentType),
		Status:      string(payment.Status),
		SnapToken:   payment.SnapToken,
		PaidAt:      payment.PaidAt,
		CreatedAt:   payment.CreatedAt,
	}
}

func newCancellationResponse(request *models.CancellationRequest) cancellationResponse {
	return cancellationResponse{
		RequestID:    request.ID,
		OrderID:      request.OrderID,
		Status:       string(request.Status),
		Reason:       request.Reason,
		AdminNotes:   request.AdminNotes,
		RefundAmount: request.RefundAmount,
		RefundStatus: string(request.RefundStatus),
		ReviewedAt:   request.ReviewedAt,
		CreatedAt:    request.CreatedAt,
	}
}
