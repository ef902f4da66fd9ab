package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/repository/outbox_repo"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
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

var outboxCols = []string{"id", "saga_id", "type", "payload", "order_status", "saga_status", "outbox_status", "created_at", "processed_at"}

func TestOutboxRepository_FindBySagaAndStatus(t *testing.T) {
	db, mock := newMockDB(t)
	createdAt := time.Now().UTC()

	mock.ExpectQuery("FROM payment_outbox WHERE type = .+ AND saga_id = .+ AND saga_status = ANY.+ FOR UPDATE").
		WithArgs("OrderProcessingSaga", "saga-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(outboxCols).
			AddRow("msg-1", "saga-1", "OrderProcessingSaga", []byte(`{}`), "PENDING", "STARTED", "STARTED", createdAt, nil))
	repo := NewOutboxRepository(PaymentOutboxTable, zap.NewNop())
	msg, err := repo.FindBySagaAndStatus(context.Background(), db, "OrderProcessingSaga", "saga-1", domain.SagaStatusStarted)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, domain.SagaStatusStarted, msg.SagaStatus)
	assert.Nil(t, msg.ProcessedAt)
}

func TestOutboxRepository_FindBySagaAndStatus_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM payment_outbox WHERE").
		WithArgs("OrderProcessingSaga", "saga-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(outboxCols))
	repo := NewOutboxRepository(PaymentOutboxTable, zap.NewNop())
	_, err := repo.FindBySagaAndStatus(context.Background(), db, "OrderProcessingSaga", "saga-1", domain.SagaStatusStarted)
	assert.ErrorIs(t, err, outbox_repo.ErrMessageNotFound)
}

func TestOutboxRepository_FindForPublish(t *testing.T) {
	db, mock := newMockDB(t)
	createdAt := time.Now().UTC()

	mock.ExpectQuery("FROM restaurant_approval_outbox WHERE outbox_status = .+ FOR UPDATE SKIP LOCKED").
		WithArgs("STARTED", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(outboxCols).
			AddRow("msg-1", "saga-1", "OrderProcessingSaga", []byte(`{}`), "PENDING", "STARTED", "STARTED", createdAt, nil).
			AddRow("msg-2", "saga-2", "OrderProcessingSaga", []byte(`{}`), "CANCELLING", "COMPENSATING", "STARTED", createdAt, nil))
	repo := NewOutboxRepository(ApprovalOutboxTable, zap.NewNop())
	messages, err := repo.FindForPublish(context.Background(), db, domain.OutboxStatusStarted,
		domain.SagaStatusStarted, domain.SagaStatusCompensating)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "msg-2", messages[1].ID)
	assert.Equal(t, domain.SagaStatusCompensating, messages[1].SagaStatus)
}

func TestOutboxRepository_Save(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO payment_outbox").
		WithArgs("msg-1", "saga-1", "OrderProcessingSaga", []byte(`{}`), "PENDING", "STARTED", "STARTED", now, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	repo := NewOutboxRepository(PaymentOutboxTable, zap.NewNop())
	err := repo.Save(context.Background(), db, &domain.OutboxMessage{
		ID:           "msg-1",
		SagaID:       "saga-1",
		Type:         "OrderProcessingSaga",
		Payload:      []byte(`{}`),
		OrderStatus:  domain.OrderStatusPending,
		SagaStatus:   domain.SagaStatusStarted,
		OutboxStatus: domain.OutboxStatusStarted,
		CreatedAt:    now,
	})
	require.NoError(t, err)
}

func TestOutboxRepository_Save_NotAcknowledged(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO payment_outbox").
		WillReturnResult(sqlmock.NewResult(0, 0))
	repo := NewOutboxRepository(PaymentOutboxTable, zap.NewNop())
	err := repo.Save(context.Background(), db, &domain.OutboxMessage{ID: "msg-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not acknowledged")
}

func TestOutboxRepository_DeleteByStatus(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("DELETE FROM payment_outbox WHERE outbox_status = .+ AND saga_status = ANY").
		WithArgs("COMPLETED", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	repo := NewOutboxRepository(PaymentOutboxTable, zap.NewNop())
	err := repo.DeleteByStatus(context.Background(), db, domain.OutboxStatusCompleted,
		domain.SagaStatusSucceeded, domain.SagaStatusFailed, domain.SagaStatusCompensated)
	require.NoError(t, err)
}
