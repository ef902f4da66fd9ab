package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/repository/outbox_repo"
)

// Publisher hands an outbox message to the message bus and reports the
// outcome through the completion callback, which is invoked exactly once per
// call. The callback must run synchronously, before Publish returns: the
// scheduler persists the reported status inside the transaction that claimed
// the row, and that transaction commits right after the publish loop.
type Publisher interface {
	Publish(ctx context.Context, msg *domain.OutboxMessage, onComplete func(*domain.OutboxMessage, domain.OutboxStatus))
}

// Scheduler polls one outbox table for unpublished messages and hands them to
// a Publisher. Rows are claimed with a locking read, so multiple scheduler
// instances never publish the same row twice. Each table carries rows in
// different saga phases when they await publication, so the claim's saga
// status set is configured per instance.
type Scheduler struct {
	name         string
	db           *sql.DB
	repo         outbox_repo.OutboxRepository
	publisher    Publisher
	sagaStatuses []domain.SagaStatus
	interval     time.Duration
	initialDelay time.Duration
	logger       *zap.Logger
}

func NewScheduler(
	name string,
	db *sql.DB,
	repo outbox_repo.OutboxRepository,
	publisher Publisher,
	sagaStatuses []domain.SagaStatus,
	interval time.Duration,
	initialDelay time.Duration,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		name:         name,
		db:           db,
		repo:         repo,
		publisher:    publisher,
		sagaStatuses: sagaStatuses,
		interval:     interval,
		initialDelay: initialDelay,
		logger:       logger.With(zap.String("scheduler", name)),
	}
}

// Start runs the polling loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		s.logger.Info("Outbox publish scheduler starting",
			zap.Duration("interval", s.interval),
			zap.Duration("initial_delay", s.initialDelay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.initialDelay):
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Outbox publish scheduler stopped")
				return
			case <-ticker.C:
				if err := s.processOutboxMessages(ctx); err != nil {
					s.logger.Error("Failed to process outbox messages", zap.Error(err))
				}
			}
		}
	}()
}

// processOutboxMessages runs one publish cycle. The claim, the publish
// attempts, and the status updates share a single transaction: the row locks
// taken by the claiming select are held until commit, which is what keeps
// concurrent scheduler instances from double-publishing.
func (s *Scheduler) processOutboxMessages(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	messages, err := s.repo.FindForPublish(ctx, tx, domain.OutboxStatusStarted, s.sagaStatuses...)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	s.logger.Info("Publishing outbox messages", zap.Int("count", len(messages)))

	var saveErr error
	for _, msg := range messages {
		s.publisher.Publish(ctx, msg, func(m *domain.OutboxMessage, status domain.OutboxStatus) {
			m.OutboxStatus = status
			if err := s.repo.Save(ctx, tx, m); err != nil && saveErr == nil {
				saveErr = err
			}
		})
		if saveErr != nil {
			return saveErr
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit publish transaction: %w", err)
	}
	return nil
}
