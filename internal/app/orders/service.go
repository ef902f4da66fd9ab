package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/app/saga"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/repository/order_repo"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/repository/outbox_repo"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/util"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidOrder  = errors.New("invalid order data")
)

type OrderService interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error)
	TrackOrder(ctx context.Context, trackingID string) (*TrackOrderResponse, error)
}

type orderService struct {
	db            *sql.DB
	domainService domain.OrderDomainService
	orderRepo     order_repo.OrderRepository
	paymentOutbox outbox_repo.OutboxRepository
	logger        *zap.Logger
}

func NewOrderService(
	db *sql.DB,
	domainService domain.OrderDomainService,
	orderRepo order_repo.OrderRepository,
	paymentOutbox outbox_repo.OutboxRepository,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		db:            db,
		domainService: domainService,
		orderRepo:     orderRepo,
		paymentOutbox: paymentOutbox,
		logger:        logger,
	}
}

// CreateOrder is the initiating saga step: the order and the payment request
// outbox row are persisted in one transaction, so the payment request cannot
// be lost or published without the order existing.
func (s *orderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	now := time.Now().UTC()
	order := &domain.Order{
		ID:           util.GenerateUUID(),
		CustomerID:   req.CustomerID,
		RestaurantID: req.RestaurantID,
		TrackingID:   util.GenerateUUID(),
		Price:        req.Price,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	event, err := s.domainService.ValidateAndInitiateOrder(order)
	if err != nil {
		s.logger.Warn("Order validation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrder, err.Error())
	}

	sagaID := util.GenerateUUID()
	paymentMsg, err := saga.NewPaymentOutboxMessage(sagaID, order, event.CreatedAt, saga.PaymentOrderStatusPending)
	if err != nil {
		s.logger.Error("Failed to build payment outbox message", zap.String("order_id", order.ID), zap.Error(err))
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.orderRepo.Save(ctx, tx, order); err != nil {
		s.logger.Error("Failed to save order", zap.String("order_id", order.ID), zap.Error(err))
		return nil, err
	}
	if err := s.paymentOutbox.Save(ctx, tx, paymentMsg); err != nil {
		s.logger.Error("Failed to save payment outbox message", zap.String("order_id", order.ID), zap.Error(err))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order creation transaction: %w", err)
	}

	s.logger.Info("Order created and payment request added to outbox",
		zap.String("order_id", order.ID),
		zap.String("saga_id", sagaID),
		zap.String("tracking_id", order.TrackingID))

	return &CreateOrderResponse{
		OrderID:    order.ID,
		TrackingID: order.TrackingID,
		Status:     string(order.Status),
		Message:    "Order created successfully",
	}, nil
}

func (s *orderService) TrackOrder(ctx context.Context, trackingID string) (*TrackOrderResponse, error) {
	order, err := s.orderRepo.FindByTrackingID(ctx, s.db, trackingID)
	if err != nil {
		if errors.Is(err, order_repo.ErrOrderNotFound) {
			s.logger.Debug("Order not found", zap.String("tracking_id", trackingID))
			return nil, ErrOrderNotFound
		}
		s.logger.Error("Failed to track order", zap.String("tracking_id", trackingID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return &TrackOrderResponse{
		TrackingID:      order.TrackingID,
		Status:          string(order.Status),
		FailureMessages: order.FailureMessages,
	}, nil
}
