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

// ApprovalSaga handles restaurant approval responses: the forward transition
// to APPROVED and the compensating transition that triggers a refund.
type ApprovalSaga struct {
	db             *sql.DB
	domainService  domain.OrderDomainService
	orderRepo      order_repo.OrderRepository
	paymentOutbox  outbox_repo.OutboxRepository
	approvalOutbox outbox_repo.OutboxRepository
	logger         *zap.Logger
}

var _ Step[*RestaurantApprovalResponse] = (*ApprovalSaga)(nil)

func NewApprovalSaga(
	db *sql.DB,
	domainService domain.OrderDomainService,
	orderRepo order_repo.OrderRepository,
	paymentOutbox outbox_repo.OutboxRepository,
	approvalOutbox outbox_repo.OutboxRepository,
	logger *zap.Logger,
) *ApprovalSaga {
	return &ApprovalSaga{
		db:             db,
		domainService:  domainService,
		orderRepo:      orderRepo,
		paymentOutbox:  paymentOutbox,
		approvalOutbox: approvalOutbox,
		logger:         logger,
	}
}

// Process applies a restaurant approval: the order becomes APPROVED and both
// outbox rows reach SUCCEEDED, making the saga eligible for cleanup.
func (s *ApprovalSaga) Process(ctx context.Context, response *RestaurantApprovalResponse) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	msg, err := s.approvalOutbox.FindBySagaAndStatus(ctx, tx, SagaName, response.SagaID, domain.SagaStatusProcessing)
	if err != nil {
		if errors.Is(err, outbox_repo.ErrMessageNotFound) {
			s.logger.Info("Approval outbox message is already processed", zap.String("saga_id", response.SagaID))
			return nil
		}
		return err
	}

	order, err := s.orderRepo.FindByID(ctx, tx, response.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", response.OrderID, err)
	}

	if err := s.domainService.ApproveOrder(order); err != nil {
		return err
	}
	if err := s.orderRepo.Save(ctx, tx, order); err != nil {
		return err
	}

	sagaStatus := domain.OrderStatusToSagaStatus(order.Status)
	advanceMessage(msg, order.Status, sagaStatus)
	if err := s.approvalOutbox.Save(ctx, tx, msg); err != nil {
		return err
	}

	paymentMsg, err := s.paymentOutbox.FindBySagaAndStatus(ctx, tx, SagaName, response.SagaID, domain.SagaStatusProcessing)
	if err != nil {
		if errors.Is(err, outbox_repo.ErrMessageNotFound) {
			return fmt.Errorf("payment outbox message for saga %s not found in %s status", response.SagaID, domain.SagaStatusProcessing)
		}
		return err
	}
	advanceMessage(paymentMsg, order.Status, sagaStatus)
	if err := s.paymentOutbox.Save(ctx, tx, paymentMsg); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit approval process transaction: %w", err)
	}
	s.logger.Info("Order is approved", zap.String("order_id", order.ID), zap.String("saga_id", response.SagaID))
	return nil
}

// Rollback compensates a rejected order: the order becomes CANCELLING and a
// new payment outbox row is queued to request the refund.
func (s *ApprovalSaga) Rollback(ctx context.Context, response *RestaurantApprovalResponse) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	msg, err := s.approvalOutbox.FindBySagaAndStatus(ctx, tx, SagaName, response.SagaID, domain.SagaStatusProcessing)
	if err != nil {
		if errors.Is(err, outbox_repo.ErrMessageNotFound) {
			s.logger.Info("Approval outbox message is already rolled back", zap.String("saga_id", response.SagaID))
			return nil
		}
		return err
	}

	order, err := s.orderRepo.FindByID(ctx, tx, response.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", response.OrderID, err)
	}

	event, err := s.domainService.CancelOrderPayment(order, response.FailureMessages)
	if err != nil {
		return err
	}
	if err := s.orderRepo.Save(ctx, tx, order); err != nil {
		return err
	}

	sagaStatus := domain.OrderStatusToSagaStatus(order.Status)
	advanceMessage(msg, order.Status, sagaStatus)
	if err := s.approvalOutbox.Save(ctx, tx, msg); err != nil {
		return err
	}

	refundMsg, err := NewPaymentOutboxMessage(response.SagaID, order, event.CreatedAt, PaymentOrderStatusCancelled)
	if err != nil {
		return err
	}
	if err := s.paymentOutbox.Save(ctx, tx, refundMsg); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit approval rollback transaction: %w", err)
	}
	s.logger.Info("Order is cancelling, refund requested",
		zap.String("order_id", order.ID),
		zap.String("saga_id", response.SagaID),
		zap.Strings("failure_messages", response.FailureMessages))
	return nil
}
