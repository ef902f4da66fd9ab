package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DBConfig struct {
		DBHost     string `env:"ORDER_DB_HOST"`
		DBPort     string `env:"ORDER_DB_PORT"`
		DBUser     string `env:"ORDER_DB_USER"`
		DBPassword string `env:"ORDER_DB_PASSWORD"`
		DBName     string `env:"ORDER_DB_NAME"`
		DBSSLMode  string `env:"ORDER_DB_SSLMODE"`
	}

	KafkaURL                string        `env:"KAFKA_BROKER_URL"`
	PaymentRequestTopic     string        `env:"KAFKA_PAYMENT_REQUEST_TOPIC"`
	PaymentResponseTopic    string        `env:"KAFKA_PAYMENT_RESPONSE_TOPIC"`
	ApprovalRequestTopic    string        `env:"KAFKA_RESTAURANT_APPROVAL_REQUEST_TOPIC"`
	ApprovalResponseTopic   string        `env:"KAFKA_RESTAURANT_APPROVAL_RESPONSE_TOPIC"`
	KafkaConsumerGroup      string        `env:"KAFKA_CONSUMER_GROUP"`
	HTTPPort                string        `env:"ORDER_HTTP_PORT"`
	OutboxSchedulerInterval time.Duration `env:"OUTBOX_SCHEDULER_INTERVAL"`
	OutboxSchedulerDelay    time.Duration `env:"OUTBOX_SCHEDULER_INITIAL_DELAY"`
	OutboxCleanupSchedule   string        `env:"OUTBOX_CLEANUP_SCHEDULE"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.DBConfig.DBHost = getEnvOrDefault("ORDER_DB_HOST", "localhost")
	cfg.DBConfig.DBPort = getEnvOrDefault("ORDER_DB_PORT", "5432")
	cfg.DBConfig.DBUser = getEnvOrDefault("ORDER_DB_USER", "postgres")
	cfg.DBConfig.DBPassword = getEnvOrDefault("ORDER_DB_PASSWORD", "postgres")
	cfg.DBConfig.DBName = getEnvOrDefault("ORDER_DB_NAME", "order_db")
	cfg.DBConfig.DBSSLMode = getEnvOrDefault("ORDER_DB_SSLMODE", "disable")

	cfg.KafkaURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.PaymentRequestTopic = getEnvOrDefault("KAFKA_PAYMENT_REQUEST_TOPIC", "payment-request")
	cfg.PaymentResponseTopic = getEnvOrDefault("KAFKA_PAYMENT_RESPONSE_TOPIC", "payment-response")
	cfg.ApprovalRequestTopic = getEnvOrDefault("KAFKA_RESTAURANT_APPROVAL_REQUEST_TOPIC", "restaurant-approval-request")
	cfg.ApprovalResponseTopic = getEnvOrDefault("KAFKA_RESTAURANT_APPROVAL_RESPONSE_TOPIC", "restaurant-approval-response")
	cfg.KafkaConsumerGroup = getEnvOrDefault("KAFKA_CONSUMER_GROUP", "order-service-group")
	cfg.HTTPPort = getEnvOrDefault("ORDER_HTTP_PORT", "8181")

	intervalStr := getEnvOrDefault("OUTBOX_SCHEDULER_INTERVAL", "10s")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_SCHEDULER_INTERVAL: %w", err)
	}
	cfg.OutboxSchedulerInterval = interval

	delayStr := getEnvOrDefault("OUTBOX_SCHEDULER_INITIAL_DELAY", "10s")
	delay, err := time.ParseDuration(delayStr)
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_SCHEDULER_INITIAL_DELAY: %w", err)
	}
	cfg.OutboxSchedulerDelay = delay

	cfg.OutboxCleanupSchedule = getEnvOrDefault("OUTBOX_CLEANUP_SCHEDULE", "@midnight")

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("%s:%s@%s:%s/%s?sslmode=%s",
		c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return []string{c.KafkaURL}
}
