package kafka

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/app/saga"
)

// PaymentResponseConsumer routes payment service responses to the payment
// saga step.
type PaymentResponseConsumer struct {
	paymentSaga saga.Step[*saga.PaymentResponse]
	logger      *zap.Logger
}

func NewPaymentResponseConsumer(s saga.Step[*saga.PaymentResponse], l *zap.Logger) *PaymentResponseConsumer {
	return &PaymentResponseConsumer{paymentSaga: s, logger: l}
}

func (c *PaymentResponseConsumer) HandleMessage(ctx context.Context, message []byte) error {
	var response saga.PaymentResponse
	if err := json.Unmarshal(message, &response); err != nil {
		c.logger.Error("Error unmarshalling payment response, dropping message",
			zap.Error(err),
			zap.String("raw_message", string(message)))
		return nil
	}

	switch response.PaymentStatus {
	case saga.PaymentStatusCompleted:
		return c.paymentSaga.Process(ctx, &response)
	case saga.PaymentStatusCancelled, saga.PaymentStatusFailed:
		return c.paymentSaga.Rollback(ctx, &response)
	default:
		c.logger.Warn("Received unknown payment status, dropping message",
			zap.String("saga_id", response.SagaID),
			zap.String("payment_status", string(response.PaymentStatus)))
		return nil
	}
}
