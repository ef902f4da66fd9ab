package saga

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/repository/order_repo"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/repository/outbox_repo"
)

// PaymentSaga handles payment service responses: the forward transition to
// PAID and the compensating transition to CANCELLED.
type PaymentSaga struct {
	db             *sql.DB
	domainService  domain.OrderDomainService
	orderRepo      order_repo.OrderRepository
	paymentOutbox  outbox_repo.OutboxRepository
	approvalOutbox outbox_repo.OutboxRepository
	logger         *zap.Logger
}

var _ Step[*PaymentResponse] = (*PaymentSaga)(nil)

func NewPaymentSaga(
	db *sql.DB,
	domainService domain.OrderDomainService,
	orderRepo order_repo.OrderRepository,
	paymentOutbox outbox_repo.OutboxRepository,
	approvalOutbox outbox_repo.OutboxRepository,
	logger *zap.Logger,
) *PaymentSaga {
	return &PaymentSaga{
		db:             db,
		domainService:  domainService,
		orderRepo:      orderRepo,
		paymentOutbox:  paymentOutbox,
		approvalOutbox: approvalOutbox,
		logger:         logger,
	}
}

// Process applies a completed payment: the order becomes PAID and an approval
// request is queued for the restaurant service.
func (s *PaymentSaga) Process(ctx context.Context, response *PaymentResponse) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	msg, err := s.paymentOutbox.FindBySagaAndStatus(ctx, tx, SagaName, response.SagaID, domain.SagaStatusStarted)
	if err != nil {
		if errors.Is(err, outbox_repo.ErrMessageNotFound) {
			s.logger.Info("Payment outbox message is already processed", zap.String("saga_id", response.SagaID))
			return nil
		}
		return err
	}

	order, err := s.orderRepo.FindByID(ctx, tx, response.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", response.OrderID, err)
	}

	event, err := s.domainService.PayOrder(order)
	if err != nil {
		return err
	}
	if err := s.orderRepo.Save(ctx, tx, order); err != nil {
		return err
	}

	sagaStatus := domain.OrderStatusToSagaStatus(order.Status)
	advanceMessage(msg, order.Status, sagaStatus)
	if err := s.paymentOutbox.Save(ctx, tx, msg); err != nil {
		return err
	}

	approvalMsg, err := NewApprovalOutboxMessage(response.SagaID, order, event.CreatedAt)
	if err != nil {
		return err
	}
	if err := s.approvalOutbox.Save(ctx, tx, approvalMsg); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment process transaction: %w", err)
	}
	s.logger.Info("Order is paid", zap.String("order_id", order.ID), zap.String("saga_id", response.SagaID))
	return nil
}

// Rollback compensates a failed or cancelled payment: the order becomes
// CANCELLED. For a cancellation (refund confirmation) the approval outbox row
// in COMPENSATING is advanced as well; its absence is a broken invariant.
func (s *PaymentSaga) Rollback(ctx context.Context, response *PaymentResponse) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	expected := expectedSagaStatuses(response.PaymentStatus)
	msg, err := s.paymentOutbox.FindBySagaAndStatus(ctx, tx, SagaName, response.SagaID, expected...)
	if err != nil {
		if errors.Is(err, outbox_repo.ErrMessageNotFound) {
			s.logger.Info("Payment outbox message is already rolled back", zap.String("saga_id", response.SagaID))
			return nil
		}
		return err
	}

	order, err := s.orderRepo.FindByID(ctx, tx, response.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", response.OrderID, err)
	}

	if err := s.domainService.CancelOrder(order, response.FailureMessages); err != nil {
		return err
	}
	if err := s.orderRepo.Save(ctx, tx, order); err != nil {
		return err
	}

	sagaStatus := domain.OrderStatusToSagaStatus(order.Status)
	advanceMessage(msg, order.Status, sagaStatus)
	if err := s.paymentOutbox.Save(ctx, tx, msg); err != nil {
		return err
	}

	if response.PaymentStatus == PaymentStatusCancelled {
		approvalMsg, err := s.approvalOutbox.FindBySagaAndStatus(ctx, tx, SagaName, response.SagaID, domain.SagaStatusCompensating)
		if err != nil {
			if errors.Is(err, outbox_repo.ErrMessageNotFound) {
				return fmt.Errorf("approval outbox message for saga %s not found in %s status", response.SagaID, domain.SagaStatusCompensating)
			}
			return err
		}
		advanceMessage(approvalMsg, order.Status, sagaStatus)
		if err := s.approvalOutbox.Save(ctx, tx, approvalMsg); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment rollback transaction: %w", err)
	}
	s.logger.Info("Order is cancelled", zap.String("order_id", order.ID), zap.String("saga_id", response.SagaID))
	return nil
}

// expectedSagaStatuses returns the saga statuses a payment outbox row must be
// in before the rollback runs. The set depends on the failure reason: a hard
// failure can arrive before or after the charge was observed, a cancellation
// only after the saga reached PROCESSING.
func expectedSagaStatuses(status PaymentStatus) []domain.SagaStatus {
	switch status {
	case PaymentStatusCompleted:
		return []domain.SagaStatus{domain.SagaStatusStarted}
	case PaymentStatusCancelled:
		return []domain.SagaStatus{domain.SagaStatusProcessing}
	default:
		return []domain.SagaStatus{domain.SagaStatusStarted, domain.SagaStatusProcessing}
	}
}
