package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
	"github.com/hovgevorgyan1994/food-ordering-system/internal/repository/outbox_repo"
)

const outboxColumns = `id, saga_id, type, payload, order_status, saga_status, outbox_status, created_at, processed_at`

// pgOutboxRepository serves one outbox table. The payment and approval
// outboxes share a schema, so the same implementation is instantiated per
// table.
type pgOutboxRepository struct {
	table  string
	logger *zap.Logger
}

func NewOutboxRepository(table string, l *zap.Logger) outbox_repo.OutboxRepository {
	return &pgOutboxRepository{table: table, logger: l.With(zap.String("outbox_table", table))}
}

func (r *pgOutboxRepository) FindBySagaAndStatus(ctx context.Context, querier domain.Querier, sagaType, sagaID string, sagaStatuses ...domain.SagaStatus) (*domain.OutboxMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE type = $1 AND saga_id = $2 AND saga_status = ANY($3) FOR UPDATE`, outboxColumns, r.table)
	row := querier.QueryRowContext(ctx, query, sagaType, sagaID, pq.Array(sagaStatusStrings(sagaStatuses)))

	msg, err := scanOutboxMessage(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbox_repo.ErrMessageNotFound
		}
		r.logger.Error("Failed to get outbox message", zap.String("saga_id", sagaID), zap.Error(err))
		return nil, fmt.Errorf("failed to get outbox message for saga %s: %w", sagaID, err)
	}
	return msg, nil
}

func (r *pgOutboxRepository) FindForPublish(ctx context.Context, querier domain.Querier, outboxStatus domain.OutboxStatus, sagaStatuses ...domain.SagaStatus) ([]*domain.OutboxMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE outbox_status = $1 AND saga_status = ANY($2) ORDER BY created_at ASC FOR UPDATE SKIP LOCKED LIMIT 100`, outboxColumns, r.table)
	rows, err := querier.QueryContext(ctx, query, outboxStatus, pq.Array(sagaStatusStrings(sagaStatuses)))
	if err != nil {
		r.logger.Error("Failed to query outbox messages for publish", zap.Error(err))
		return nil, fmt.Errorf("failed to get outbox messages for publish: %w", err)
	}
	defer rows.Close()

	var messages []*domain.OutboxMessage
	for rows.Next() {
		msg, err := scanOutboxMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return messages, nil
}

func (r *pgOutboxRepository) Save(ctx context.Context, querier domain.Querier, msg *domain.OutboxMessage) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET order_status = EXCLUDED.order_status,
		    saga_status = EXCLUDED.saga_status,
		    outbox_status = EXCLUDED.outbox_status,
		    processed_at = EXCLUDED.processed_at`, r.table, outboxColumns)
	res, err := querier.ExecContext(ctx, query,
		msg.ID,
		msg.SagaID,
		msg.Type,
		msg.Payload,
		msg.OrderStatus,
		msg.SagaStatus,
		msg.OutboxStatus,
		msg.CreatedAt,
		msg.ProcessedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save outbox message", zap.String("message_id", msg.ID), zap.Error(err))
		return fmt.Errorf("failed to save outbox message %s: %w", msg.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check save result: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Error("Outbox message save affected no rows", zap.String("message_id", msg.ID))
		return fmt.Errorf("outbox message save for %s was not acknowledged", msg.ID)
	}
	r.logger.Debug("Outbox message saved",
		zap.String("message_id", msg.ID),
		zap.String("saga_status", string(msg.SagaStatus)),
		zap.String("outbox_status", string(msg.OutboxStatus)))
	return nil
}

func (r *pgOutboxRepository) DeleteByStatus(ctx context.Context, querier domain.Querier, outboxStatus domain.OutboxStatus, sagaStatuses ...domain.SagaStatus) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE outbox_status = $1 AND saga_status = ANY($2)`, r.table)
	res, err := querier.ExecContext(ctx, query, outboxStatus, pq.Array(sagaStatusStrings(sagaStatuses)))
	if err != nil {
		r.logger.Error("Failed to delete outbox messages", zap.Error(err))
		return fmt.Errorf("failed to delete outbox messages: %w", err)
	}
	if deleted, err := res.RowsAffected(); err == nil && deleted > 0 {
		r.logger.Info("Outbox messages deleted", zap.Int64("count", deleted))
	}
	return nil
}

func scanOutboxMessage(scan func(dest ...any) error) (*domain.OutboxMessage, error) {
	msg := &domain.OutboxMessage{}
	var processedAt sql.NullTime
	err := scan(
		&msg.ID,
		&msg.SagaID,
		&msg.Type,
		&msg.Payload,
		&msg.OrderStatus,
		&msg.SagaStatus,
		&msg.OutboxStatus,
		&msg.CreatedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}
	if processedAt.Valid {
		msg.ProcessedAt = &processedAt.Time
	}
	return msg, nil
}

func sagaStatusStrings(statuses []domain.SagaStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
