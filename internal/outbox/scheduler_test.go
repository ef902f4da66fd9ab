package outbox

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/repository/outbox_repo"
)

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

type fakeOutboxRepo struct {
	pending []*domain.OutboxMessage
	saved   []*domain.OutboxMessage
	deleted int
	saveErr error
}

func (r *fakeOutboxRepo) FindBySagaAndStatus(_ context.Context, _ domain.Querier, _, _ string, _ ...domain.SagaStatus) (*domain.OutboxMessage, error) {
	return nil, outbox_repo.ErrMessageNotFound
}

func (r *fakeOutboxRepo) FindForPublish(_ context.Context, _ domain.Querier, outboxStatus domain.OutboxStatus, sagaStatuses ...domain.SagaStatus) ([]*domain.OutboxMessage, error) {
	var out []*domain.OutboxMessage
	for _, m := range r.pending {
		if m.OutboxStatus != outboxStatus {
			continue
		}
		for _, s := range sagaStatuses {
			if m.SagaStatus == s {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) Save(_ context.Context, _ domain.Querier, msg *domain.OutboxMessage) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, msg)
	return nil
}

func (r *fakeOutboxRepo) DeleteByStatus(_ context.Context, _ domain.Querier, outboxStatus domain.OutboxStatus, sagaStatuses ...domain.SagaStatus) error {
	r.deleted++
	return nil
}

// fakePublisher reports a fixed outcome per message ID, defaulting to
// COMPLETED.
type fakePublisher struct {
	outcomes  map[string]domain.OutboxStatus
	published []string
}

func (p *fakePublisher) Publish(_ context.Context, msg *domain.OutboxMessage, onComplete func(*domain.OutboxMessage, domain.OutboxStatus)) {
	p.published = append(p.published, msg.ID)
	status, ok := p.outcomes[msg.ID]
	if !ok {
		status = domain.OutboxStatusCompleted
	}
	onComplete(msg, status)
}

func pendingMessage(id string, sagaStatus domain.SagaStatus) *domain.OutboxMessage {
	return &domain.OutboxMessage{
		ID:           id,
		SagaID:       "saga-" + id,
		Type:         "OrderProcessingSaga",
		Payload:      []byte(`{}`),
		SagaStatus:   sagaStatus,
		OutboxStatus: domain.OutboxStatusStarted,
		CreatedAt:    time.Now().UTC(),
	}
}

func newTestScheduler(db *sql.DB, repo *fakeOutboxRepo, publisher *fakePublisher, sagaStatuses ...domain.SagaStatus) *Scheduler {
	if len(sagaStatuses) == 0 {
		sagaStatuses = []domain.SagaStatus{domain.SagaStatusStarted, domain.SagaStatusCompensating}
	}
	return NewScheduler("test-outbox", db, repo, publisher, sagaStatuses, 10*time.Millisecond, 0, zap.NewNop())
}

func TestScheduler_PublishesClaimedMessages(t *testing.T) {
	db, mock := newTxDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeOutboxRepo{pending: []*domain.OutboxMessage{
		pendingMessage("msg-1", domain.SagaStatusStarted),
		pendingMessage("msg-2", domain.SagaStatusCompensating),
	}}
	publisher := &fakePublisher{}

	scheduler := newTestScheduler(db, repo, publisher)
	require.NoError(t, scheduler.processOutboxMessages(context.Background()))

	assert.Equal(t, []string{"msg-1", "msg-2"}, publisher.published)
	require.Len(t, repo.saved, 2)
	for _, msg := range repo.saved {
		assert.Equal(t, domain.OutboxStatusCompleted, msg.OutboxStatus)
	}
}

func TestScheduler_PublishesApprovalRequests(t *testing.T) {
	db, mock := newTxDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	// Approval request rows are created when the order turns PAID, so they
	// await publication in PROCESSING. The approval-table scheduler must
	// claim that phase or paid orders never reach the restaurant.
	repo := &fakeOutboxRepo{pending: []*domain.OutboxMessage{
		pendingMessage("msg-1", domain.OrderStatusToSagaStatus(domain.OrderStatusPaid)),
	}}
	publisher := &fakePublisher{}

	scheduler := newTestScheduler(db, repo, publisher, domain.SagaStatusProcessing)
	require.NoError(t, scheduler.processOutboxMessages(context.Background()))

	assert.Equal(t, []string{"msg-1"}, publisher.published)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, domain.OutboxStatusCompleted, repo.saved[0].OutboxStatus)
}

func TestScheduler_SkipsTerminalSagaStatuses(t *testing.T) {
	db, mock := newTxDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	// SUCCEEDED rows were already published in a previous cycle.
	repo := &fakeOutboxRepo{pending: []*domain.OutboxMessage{
		pendingMessage("msg-1", domain.SagaStatusSucceeded),
	}}
	publisher := &fakePublisher{}

	scheduler := newTestScheduler(db, repo, publisher)
	require.NoError(t, scheduler.processOutboxMessages(context.Background()))
	assert.Empty(t, publisher.published)
	assert.Empty(t, repo.saved)
}

func TestScheduler_RecordsFailedPublish(t *testing.T) {
	db, mock := newTxDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeOutboxRepo{pending: []*domain.OutboxMessage{
		pendingMessage("msg-1", domain.SagaStatusStarted),
	}}
	publisher := &fakePublisher{outcomes: map[string]domain.OutboxStatus{
		"msg-1": domain.OutboxStatusFailed,
	}}

	scheduler := newTestScheduler(db, repo, publisher)
	require.NoError(t, scheduler.processOutboxMessages(context.Background()))

	require.Len(t, repo.saved, 1)
	assert.Equal(t, domain.OutboxStatusFailed, repo.saved[0].OutboxStatus)
}

func TestScheduler_SaveErrorAbortsCycle(t *testing.T) {
	db, mock := newTxDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeOutboxRepo{
		pending: []*domain.OutboxMessage{pendingMessage("msg-1", domain.SagaStatusStarted)},
		saveErr: errors.New("save failed"),
	}
	publisher := &fakePublisher{}

	scheduler := newTestScheduler(db, repo, publisher)
	err := scheduler.processOutboxMessages(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save failed")
}

func TestScheduler_StartStopsOnContextCancel(t *testing.T) {
	db, _ := newTxDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	scheduler := NewScheduler("test-outbox", db, &fakeOutboxRepo{}, &fakePublisher{},
		[]domain.SagaStatus{domain.SagaStatusStarted}, time.Hour, time.Hour, zap.NewNop())
	scheduler.Start(ctx)
	cancel()

	// The loop is still in its initial delay; cancelling must not leave a
	// transaction open on the mocked database.
	time.Sleep(20 * time.Millisecond)
}
