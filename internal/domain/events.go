package domain

import "time"

// OrderCreatedEvent is emitted when a new order passes validation.
type OrderCreatedEvent struct {
	Order     *Order
	CreatedAt time.Time
}

// OrderPaidEvent is emitted when the payment service confirms the charge.
type OrderPaidEvent struct {
	Order     *Order
	CreatedAt time.Time
}

// OrderCancelledEvent is emitted when an order enters the compensating path.
type OrderCancelledEvent struct {
	Order     *Order
	CreatedAt time.Time
}
