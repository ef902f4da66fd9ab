package kafka

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/app/saga"
)

// ApprovalResponseConsumer routes restaurant approval responses to the
// approval saga step.
type ApprovalResponseConsumer struct {
	approvalSaga saga.Step[*saga.RestaurantApprovalResponse]
	logger       *zap.Logger
}

func NewApprovalResponseConsumer(s saga.Step[*saga.RestaurantApprovalResponse], l *zap.Logger) *ApprovalResponseConsumer {
	return &ApprovalResponseConsumer{approvalSaga: s, logger: l}
}

func (c *ApprovalResponseConsumer) HandleMessage(ctx context.Context, message []byte) error {
	var response saga.RestaurantApprovalResponse
	if err := json.Unmarshal(message, &response); err != nil {
		c.logger.Error("Error unmarshalling approval response, dropping message",
			zap.Error(err),
			zap.String("raw_message", string(message)))
		return nil
	}

	switch response.OrderApprovalStatus {
	case saga.OrderApprovalStatusApproved:
		return c.approvalSaga.Process(ctx, &response)
	case saga.OrderApprovalStatusRejected:
		return c.approvalSaga.Rollback(ctx, &response)
	default:
		c.logger.Warn("Received unknown approval status, dropping message",
			zap.String("saga_id", response.SagaID),
			zap.String("order_approval_status", string(response.OrderApprovalStatus)))
		return nil
	}
}
