package saga

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/util"
)

// Payment order statuses carried on outbound payment requests.
const (
	PaymentOrderStatusPending   = "PENDING"
	PaymentOrderStatusCancelled = "CANCELLED"
)

// RestaurantOrderStatusPaid is the only status carried on approval requests.
const RestaurantOrderStatusPaid = "PAID"

// PaymentEventPayload is the wire schema of payment request messages.
type PaymentEventPayload struct {
	SagaID             string    `json:"saga_id"`
	OrderID            string    `json:"order_id"`
	CustomerID         string    `json:"customer_id"`
	Price              float64   `json:"price"`
	CreatedAt          time.Time `json:"created_at"`
	PaymentOrderStatus string    `json:"payment_order_status"`
}

// ApprovalEventProduct is one order line on an approval request.
type ApprovalEventProduct struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// ApprovalEventPayload is the wire schema of restaurant approval request
// messages.
type ApprovalEventPayload struct {
	SagaID                string                 `json:"saga_id"`
	OrderID               string                 `json:"order_id"`
	RestaurantID          string                 `json:"restaurant_id"`
	Price                 float64                `json:"price"`
	Products              []ApprovalEventProduct `json:"products"`
	CreatedAt             time.Time              `json:"created_at"`
	RestaurantOrderStatus string                 `json:"restaurant_order_status"`
}

// NewPaymentOutboxMessage builds a payment outbox row for the given order,
// stamped with the saga status derived from the order's current status.
func NewPaymentOutboxMessage(sagaID string, order *domain.Order, createdAt time.Time, paymentOrderStatus string) (*domain.OutboxMessage, error) {
	payload := PaymentEventPayload{
		SagaID:             sagaID,
		OrderID:            order.ID,
		CustomerID:         order.CustomerID,
		Price:              order.Price,
		CreatedAt:          createdAt,
		PaymentOrderStatus: paymentOrderStatus,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment event payload for order %s: %w", order.ID, err)
	}
	return &domain.OutboxMessage{
		ID:           util.GenerateUUID(),
		SagaID:       sagaID,
		Type:         SagaName,
		Payload:      payloadBytes,
		OrderStatus:  order.Status,
		SagaStatus:   domain.OrderStatusToSagaStatus(order.Status),
		OutboxStatus: domain.OutboxStatusStarted,
		CreatedAt:    createdAt,
	}, nil
}

// NewApprovalOutboxMessage builds a restaurant approval outbox row for a paid
// order.
func NewApprovalOutboxMessage(sagaID string, order *domain.Order, createdAt time.Time) (*domain.OutboxMessage, error) {
	products := make([]ApprovalEventProduct, len(order.Items))
	for i, item := range order.Items {
		products[i] = ApprovalEventProduct{ID: item.ProductID, Quantity: item.Quantity}
	}
	payload := ApprovalEventPayload{
		SagaID:                sagaID,
		OrderID:               order.ID,
		RestaurantID:          order.RestaurantID,
		Price:                 order.Price,
		Products:              products,
		CreatedAt:             createdAt,
		RestaurantOrderStatus: RestaurantOrderStatusPaid,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal approval event payload for order %s: %w", order.ID, err)
	}
	return &domain.OutboxMessage{
		ID:           util.GenerateUUID(),
		SagaID:       sagaID,
		Type:         SagaName,
		Payload:      payloadBytes,
		OrderStatus:  order.Status,
		SagaStatus:   domain.OrderStatusToSagaStatus(order.Status),
		OutboxStatus: domain.OutboxStatusStarted,
		CreatedAt:    createdAt,
	}, nil
}
