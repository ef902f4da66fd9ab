package saga

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/repository/order_repo"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/repository/outbox_repo"
)

// The saga steps own only transaction boundaries and orchestration, so the
// tests pair in-memory repositories with a sqlmock database that verifies
// begin/commit/rollback behavior.

func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		mock.ExpectClose()
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})
	return db, mock
}

type fakeOrderRepo struct {
	orders map[string]*domain.Order
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (r *fakeOrderRepo) FindByID(_ context.Context, _ domain.Querier, id string) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, order_repo.ErrOrderNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) FindByTrackingID(_ context.Context, _ domain.Querier, trackingID string) (*domain.Order, error) {
	for _, o := range r.orders {
		if o.TrackingID == trackingID {
			return o, nil
		}
	}
	return nil, order_repo.ErrOrderNotFound
}

func (r *fakeOrderRepo) Save(_ context.Context, _ domain.Querier, order *domain.Order) error {
	r.orders[order.ID] = order
	return nil
}

type fakeOutboxRepo struct {
	messages map[string]*domain.OutboxMessage
}

func newFakeOutboxRepo(messages ...*domain.OutboxMessage) *fakeOutboxRepo {
	repo := &fakeOutboxRepo{messages: make(map[string]*domain.OutboxMessage)}
	for _, m := range messages {
		stored := *m
		repo.messages[m.ID] = &stored
	}
	return repo
}

func sagaStatusIn(status domain.SagaStatus, set []domain.SagaStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func (r *fakeOutboxRepo) FindBySagaAndStatus(_ context.Context, _ domain.Querier, sagaType, sagaID string, sagaStatuses ...domain.SagaStatus) (*domain.OutboxMessage, error) {
	for _, m := range r.messages {
		if m.Type == sagaType && m.SagaID == sagaID && sagaStatusIn(m.SagaStatus, sagaStatuses) {
			found := *m
			return &found, nil
		}
	}
	return nil, outbox_repo.ErrMessageNotFound
}

func (r *fakeOutboxRepo) FindForPublish(_ context.Context, _ domain.Querier, outboxStatus domain.OutboxStatus, sagaStatuses ...domain.SagaStatus) ([]*domain.OutboxMessage, error) {
	var out []*domain.OutboxMessage
	for _, m := range r.messages {
		if m.OutboxStatus == outboxStatus && sagaStatusIn(m.SagaStatus, sagaStatuses) {
			found := *m
			out = append(out, &found)
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) Save(_ context.Context, _ domain.Querier, msg *domain.OutboxMessage) error {
	stored := *msg
	r.messages[msg.ID] = &stored
	return nil
}

func (r *fakeOutboxRepo) DeleteByStatus(_ context.Context, _ domain.Querier, outboxStatus domain.OutboxStatus, sagaStatuses ...domain.SagaStatus) error {
	for id, m := range r.messages {
		if m.OutboxStatus == outboxStatus && sagaStatusIn(m.SagaStatus, sagaStatuses) {
			delete(r.messages, id)
		}
	}
	return nil
}

// countingDomainService counts transition invocations so duplicate-delivery
// tests can assert the domain was not touched twice.
type countingDomainService struct {
	domain.OrderDomainService
	payCalls     int
	approveCalls int
	cancelCalls  int
	initCalls    int
}

func newCountingDomainService() *countingDomainService {
	return &countingDomainService{OrderDomainService: domain.NewOrderDomainService(zap.NewNop())}
}

func (c *countingDomainService) PayOrder(order *domain.Order) (*domain.OrderPaidEvent, error) {
	c.payCalls++
	return c.OrderDomainService.PayOrder(order)
}

func (c *countingDomainService) ApproveOrder(order *domain.Order) error {
	c.approveCalls++
	return c.OrderDomainService.ApproveOrder(order)
}

func (c *countingDomainService) CancelOrderPayment(order *domain.Order, failureMessages []string) (*domain.OrderCancelledEvent, error) {
	c.initCalls++
	return c.OrderDomainService.CancelOrderPayment(order, failureMessages)
}

func (c *countingDomainService) CancelOrder(order *domain.Order, failureMessages []string) error {
	c.cancelCalls++
	return c.OrderDomainService.CancelOrder(order, failureMessages)
}

func testOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:           "order-1",
		CustomerID:   "customer-1",
		RestaurantID: "restaurant-1",
		TrackingID:   "tracking-1",
		Price:        50,
		Items: []domain.OrderItem{
			{ProductID: "product-1", Quantity: 2, Price: 10},
			{ProductID: "product-2", Quantity: 3, Price: 10},
		},
		Status: status,
	}
}

func testOutboxMessage(id string, sagaStatus domain.SagaStatus) *domain.OutboxMessage {
	return &domain.OutboxMessage{
		ID:           id,
		SagaID:       "saga-1",
		Type:         SagaName,
		Payload:      []byte(`{}`),
		SagaStatus:   sagaStatus,
		OutboxStatus: domain.OutboxStatusStarted,
		CreatedAt:    time.Now().UTC(),
	}
}
