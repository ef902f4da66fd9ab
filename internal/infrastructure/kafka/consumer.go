package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageHandler func(ctx context.Context, message []byte) error

// StartConsumer fetches messages from a topic and hands them to the handler.
// Offsets are committed only after the handler returns nil, so a failed
// handler leaves the message uncommitted and the transport redelivers it.
func StartConsumer(ctx context.Context, brokers []string, topic, groupID string, handler MessageHandler, l *zap.Logger) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
		Logger:   zap.NewStdLog(l.With(zap.String("kafka_component", "consumer"))),
	})
	defer reader.Close()

	l.Info("Kafka consumer started",
		zap.String("topic", topic),
		zap.String("group_id", groupID),
		zap.Strings("brokers", brokers))

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				l.Info("Kafka consumer stopped", zap.String("topic", topic))
				return nil
			}
			l.Error("Error fetching message from Kafka", zap.String("topic", topic), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		if err := handler(ctx, m.Value); err != nil {
			l.Error("Handler failed, message will be redelivered",
				zap.String("topic", topic),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
			continue
		}

		if err := reader.CommitMessages(ctx, m); err != nil {
			l.Error("Failed to commit message offset",
				zap.String("topic", topic),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
		}
	}
}
