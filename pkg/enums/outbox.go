package enums

// OutboxEventType identifies the domain event stored in an outbox row.
type OutboxEventType string

const (
	EventOrderPaid          OutboxEventType = "order.paid"
	EventOrderPartiallyPaid OutboxEventType = "order.partially_paid"
	EventOrderFailed        OutboxEventType = "order.failed"
	EventOrderCancelled     OutboxEventType = "order.cancelled"
)

// OutboxAggregateType identifies which aggregate an outbox row belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregatePayment OutboxAggregateType = "payment"
)
