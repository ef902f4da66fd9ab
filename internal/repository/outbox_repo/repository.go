package outbox_repo

import (
	"context"
	"errors"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
)

// ErrMessageNotFound is returned by FindBySagaAndStatus when no row matches
// the expected saga statuses. For saga steps this signals a duplicate
// delivery of an already-applied outcome.
var ErrMessageNotFound = errors.New("outbox message not found")

type OutboxRepository interface {
	// FindBySagaAndStatus returns the single message for (type, saga id)
	// whose saga status is in the given set. The read takes a row lock so
	// racing deliveries for the same saga id serialize on it.
	FindBySagaAndStatus(ctx context.Context, querier domain.Querier, sagaType, sagaID string, sagaStatuses ...domain.SagaStatus) (*domain.OutboxMessage, error)
	// FindForPublish claims messages awaiting publication. Claimed rows are
	// skipped by concurrent scheduler instances until the caller's
	// transaction ends.
	FindForPublish(ctx context.Context, querier domain.Querier, outboxStatus domain.OutboxStatus, sagaStatuses ...domain.SagaStatus) ([]*domain.OutboxMessage, error)
	Save(ctx context.Context, querier domain.Querier, msg *domain.OutboxMessage) error
	DeleteByStatus(ctx context.Context, querier domain.Querier, outboxStatus domain.OutboxStatus, sagaStatuses ...domain.SagaStatus) error
}
