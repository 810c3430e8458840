package payloads

// OrderPaidEvent fans out once an order reaches Paid. The dispatcher issues
// digital invitations and queues customer notifications from it.
type OrderPaidEvent struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      int64  `json:"user_id"`
	PaymentID   int64  `json:"payment_id"`
	PaymentType string `json:"payment_type"`
	Amount      int64  `json:"amount"`
}

// OrderPartiallyPaidEvent fans out when a down payment settles.
type OrderPartiallyPaidEvent struct {
	OrderID        int64 `json:"order_id"`
	UserID         int64 `json:"user_id"`
	PaymentID      int64 `json:"payment_id"`
	AmountPaid     int64 `json:"amount_paid"`
	RemainingDue   int64 `json:"remaining_due"`
	FinalPaymentID int64 `json:"final_payment_id"`
}

// OrderFailedEvent fans out when the gateway reports cancel/deny/expire.
type OrderFailedEvent struct {
	OrderID   int64  `json:"order_id"`
	UserID    int64  `json:"user_id"`
	PaymentID int64  `json:"payment_id"`
	Reason    string `json:"reason"`
}

// OrderCancelledEvent fans out after an approved cancellation request.
type OrderCancelledEvent struct {
	OrderID      int64  `json:"order_id"`
	UserID       int64  `json:"user_id"`
	RequestID    int64  `json:"request_id"`
	RefundAmount *int64 `json:"refund_amount,omitempty"`
}
