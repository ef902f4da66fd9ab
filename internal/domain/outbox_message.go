package domain

import "time"

// OutboxMessage is a cross-service message persisted in the same transaction
// as the state change it announces. A background scheduler publishes it later.
type OutboxMessage struct {
	ID           string
	SagaID       string
	Type         string
	Payload      []byte
	OrderStatus  OrderStatus
	SagaStatus   SagaStatus
	OutboxStatus OutboxStatus
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}
