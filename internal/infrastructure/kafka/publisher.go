package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/hovgevorgyan1994/food-ordering-system/internal/domain"
)

// MessagePublisher writes outbox payloads to one Kafka topic. Writes are
// synchronous with full acks so the completion callback reports the real
// broker outcome before the caller's transaction commits.
type MessagePublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewMessagePublisher(brokers []string, topic string, logger *zap.Logger) *MessagePublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Logger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Debug(fmt.Sprintf(msg, args...)) }),
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error(fmt.Sprintf(msg, args...)) }),
	}
	return &MessagePublisher{
		writer: writer,
		logger: logger.With(zap.String("topic", topic)),
	}
}

// Publish writes the message keyed by saga id, so responses for one saga stay
// on one partition, and invokes onComplete exactly once.
func (p *MessagePublisher) Publish(ctx context.Context, msg *domain.OutboxMessage, onComplete func(*domain.OutboxMessage, domain.OutboxStatus)) {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.SagaID),
		Value: msg.Payload,
	})
	if err != nil {
		p.logger.Error("Failed to write message to Kafka",
			zap.String("message_id", msg.ID),
			zap.String("saga_id", msg.SagaID),
			zap.Error(err))
		onComplete(msg, domain.OutboxStatusFailed)
		return
	}
	p.logger.Debug("Message written to Kafka",
		zap.String("message_id", msg.ID),
		zap.String("saga_id", msg.SagaID))
	onComplete(msg, domain.OutboxStatusCompleted)
}

func (p *MessagePublisher) Close() error {
	return p.writer.Close()
}
