package saga

import "time"

// PaymentStatus is the outcome reported by the payment service.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// OrderApprovalStatus is the outcome reported by the restaurant service.
type OrderApprovalStatus string

const (
	OrderApprovalStatusApproved OrderApprovalStatus = "APPROVED"
	OrderApprovalStatusRejected OrderApprovalStatus = "REJECTED"
)

// PaymentResponse is the message consumed by the payment saga step.
type PaymentResponse struct {
	ID              string        `json:"id"`
	SagaID          string        `json:"saga_id"`
	OrderID         string        `json:"order_id"`
	PaymentID       string        `json:"payment_id"`
	CustomerID      string        `json:"customer_id"`
	Price           float64       `json:"price"`
	CreatedAt       time.Time     `json:"created_at"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	FailureMessages []string      `json:"failure_messages"`
}

// RestaurantApprovalResponse is the message consumed by the approval saga step.
type RestaurantApprovalResponse struct {
	ID                  string              `json:"id"`
	SagaID              string              `json:"saga_id"`
	OrderID             string              `json:"order_id"`
	RestaurantID        string              `json:"restaurant_id"`
	CreatedAt           time.Time           `json:"created_at"`
	OrderApprovalStatus OrderApprovalStatus `json:"order_approval_status"`
	FailureMessages     []string            `json:"failure_messages"`
}
