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

// Cleaner periodically deletes outbox rows that were published and whose saga
// reached a terminal status. Purely storage reclamation; a missed run only
// lets the table grow.
type Cleaner struct {
	name     string
	db       *sql.DB
	repo     outbox_repo.OutboxRepository
	schedule Schedule
	logger   *zap.Logger
}

func NewCleaner(name string, db *sql.DB, repo outbox_repo.OutboxRepository, schedule Schedule, logger *zap.Logger) *Cleaner {
	return &Cleaner{
		name:     name,
		db:       db,
		repo:     repo,
		schedule: schedule,
		logger:   logger.With(zap.String("cleaner", name)),
	}
}

// Start runs the cleanup loop until the context is cancelled.
func (c *Cleaner) Start(ctx context.Context) {
	go func() {
		for {
			next := c.schedule.Next(time.Now())
			c.logger.Info("Outbox cleaner scheduled", zap.Time("next_run", next))

			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				c.logger.Info("Outbox cleaner stopped")
				return
			case <-timer.C:
			}

			if err := c.cleanOutboxMessages(ctx); err != nil {
				c.logger.Error("Failed to clean outbox messages", zap.Error(err))
			}
		}
	}()
}

func (c *Cleaner) cleanOutboxMessages(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = c.repo.DeleteByStatus(ctx, tx, domain.OutboxStatusCompleted,
		domain.SagaStatusSucceeded, domain.SagaStatusFailed, domain.SagaStatusCompensated)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cleanup transaction: %w", err)
	}
	return nil
}
