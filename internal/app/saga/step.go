package saga

import (
	"context"
	"time"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
)

// SagaName tags every outbox row that belongs to the order processing saga.
const SagaName = "OrderProcessingSaga"

// Step is a forward/compensating transition pair bound to one incoming
// response kind. Each method is one atomic unit of work: guard lookup, domain
// transition, order save, and outbox updates commit or fail together.
type Step[R any] interface {
	Process(ctx context.Context, response R) error
	Rollback(ctx context.Context, response R) error
}

// advanceMessage restamps an outbox message after a domain transition.
func advanceMessage(msg *domain.OutboxMessage, orderStatus domain.OrderStatus, sagaStatus domain.SagaStatus) {
	now := time.Now().UTC()
	msg.OrderStatus = orderStatus
	msg.SagaStatus = sagaStatus
	msg.ProcessedAt = &now
}
