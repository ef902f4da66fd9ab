package domain

// SagaStatus tracks the position of a whole order saga as recorded on an
// outbox message.
type SagaStatus string

const (
	SagaStatusStarted      SagaStatus = "STARTED"
	SagaStatusProcessing   SagaStatus = "PROCESSING"
	SagaStatusSucceeded    SagaStatus = "SUCCEEDED"
	SagaStatusCompensating SagaStatus = "COMPENSATING"
	SagaStatusCompensated  SagaStatus = "COMPENSATED"
	SagaStatusFailed       SagaStatus = "FAILED"
)

// OutboxStatus tracks the publication state of a single outbox message.
type OutboxStatus string

const (
	OutboxStatusStarted   OutboxStatus = "STARTED"
	OutboxStatusCompleted OutboxStatus = "COMPLETED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// OrderStatusToSagaStatus maps the order's business status to the saga status
// stamped on outbox messages after every domain transition. Statuses that have
// not meaningfully progressed (PENDING included) map to STARTED.
func OrderStatusToSagaStatus(orderStatus OrderStatus) SagaStatus {
	switch orderStatus {
	case OrderStatusPaid:
		return SagaStatusProcessing
	case OrderStatusApproved:
		return SagaStatusSucceeded
	case OrderStatusCancelling:
		return SagaStatusCompensating
	case OrderStatusCancelled:
		return SagaStatusCompensated
	default:
		return SagaStatusStarted
	}
}
