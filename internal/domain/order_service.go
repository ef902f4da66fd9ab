package domain

import (
	"time"

	"go.uber.org/zap"
)

// OrderDomainService is the domain transition function of the order saga.
// Business-rule failures travel as failure messages on the order; errors are
// reserved for invariant violations (illegal state transitions).
type OrderDomainService interface {
	ValidateAndInitiateOrder(order *Order) (*OrderCreatedEvent, error)
	PayOrder(order *Order) (*OrderPaidEvent, error)
	ApproveOrder(order *Order) error
	CancelOrderPayment(order *Order, failureMessages []string) (*OrderCancelledEvent, error)
	CancelOrder(order *Order, failureMessages []string) error
}

type orderDomainService struct {
	logger *zap.Logger
}

func NewOrderDomainService(l *zap.Logger) OrderDomainService {
	return &orderDomainService{logger: l}
}

func (s *orderDomainService) ValidateAndInitiateOrder(order *Order) (*OrderCreatedEvent, error) {
	if err := order.ValidateOrder(); err != nil {
		return nil, err
	}
	order.Status = OrderStatusPending
	s.logger.Info("Order is initiated", zap.String("order_id", order.ID))
	return &OrderCreatedEvent{Order: order, CreatedAt: time.Now().UTC()}, nil
}

func (s *orderDomainService) PayOrder(order *Order) (*OrderPaidEvent, error) {
	if err := order.Pay(); err != nil {
		return nil, err
	}
	s.logger.Info("Order is paid", zap.String("order_id", order.ID))
	return &OrderPaidEvent{Order: order, CreatedAt: time.Now().UTC()}, nil
}

func (s *orderDomainService) ApproveOrder(order *Order) error {
	if err := order.Approve(); err != nil {
		return err
	}
	s.logger.Info("Order is approved", zap.String("order_id", order.ID))
	return nil
}

func (s *orderDomainService) CancelOrderPayment(order *Order, failureMessages []string) (*OrderCancelledEvent, error) {
	if err := order.InitCancel(failureMessages); err != nil {
		return nil, err
	}
	s.logger.Info("Order payment is cancelling", zap.String("order_id", order.ID))
	return &OrderCancelledEvent{Order: order, CreatedAt: time.Now().UTC()}, nil
}

func (s *orderDomainService) CancelOrder(order *Order, failureMessages []string) error {
	if err := order.Cancel(failureMessages); err != nil {
		return err
	}
	s.logger.Info("Order is cancelled", zap.String("order_id", order.ID))
	return nil
}
