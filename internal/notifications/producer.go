package notifications

import (
	"context"
	"fmt"
	"time"

	"ticketpoint/internal/shared/config"
	"ticketpoint/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// KafkaProducerConfig contains configuration for the delivery producer
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	ClientID         string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig(cfg config.KafkaConfig) *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          cfg.Brokers,
		Topic:            cfg.DeliveryTopic,
		ClientID:         cfg.ClientID,
		RetryMax:         3,
		TimeoutMs:        10000,             // 10 seconds
		RequiredAcks:     sarama.WaitForAll, // Wait for all in-sync replicas
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000, // 1MB
	}
}

func (c *KafkaProducerConfig) saramaConfig() *sarama.Config {
	sc := sarama.NewConfig()
	if c.ClientID != "" {
		sc.ClientID = c.ClientID
	}

	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.RequiredAcks = c.RequiredAcks
	sc.Producer.Compression = c.CompressionType
	sc.Producer.Retry.Max = c.RetryMax
	sc.Producer.Timeout = time.Duration(c.TimeoutMs) * time.Millisecond
	sc.Producer.Idempotent = c.IdempotentWrites
	sc.Producer.MaxMessageBytes = c.MaxMessageBytes

	// Idempotent producers need a single in-flight request
	if c.IdempotentWrites {
		sc.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps a booking's tasks in order
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	return sc
}

// KafkaDeliveryProducer publishes delivery tasks to Kafka
type KafkaDeliveryProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

func NewKafkaDeliveryProducer(cfg *KafkaProducerConfig, log *logger.Logger) (*KafkaDeliveryProducer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, cfg.saramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaDeliveryProducerWith(producer, cfg.Topic, log), nil
}

// NewKafkaDeliveryProducerWith wraps an existing producer
func NewKafkaDeliveryProducerWith(producer sarama.SyncProducer, topic string, log *logger.Logger) *KafkaDeliveryProducer {
	if log == nil {
		log = logger.GetDefault()
	}
	return &KafkaDeliveryProducer{
		producer: producer,
		topic:    topic,
		log:      log.WithComponent("delivery_producer"),
	}
}

func (p *KafkaDeliveryProducer) DispatchTicket(ctx context.Context, bookingID uuid.UUID) error {
	return p.Publish(ctx, NewDeliveryTask(bookingID))
}

// Publish sends one task keyed by its booking
func (p *KafkaDeliveryProducer) Publish(ctx context.Context, task DeliveryTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := task.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal delivery task: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(task.PartitionKey()),
		Value:     sarama.ByteEncoder(value),
		Headers:   createHeaders(task),
		Timestamp: task.EnqueuedAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send delivery task to Kafka: %w", err)
	}

	p.log.DebugWithContext(ctx, "Delivery task published", map[string]interface{}{
		"topic":      p.topic,
		"partition":  partition,
		"offset":     offset,
		"booking_id": task.BookingID.String(),
	})
	return nil
}

func createHeaders(task DeliveryTask) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte("task_id"), Value: []byte(task.ID.String())},
		{Key: []byte("booking_id"), Value: []byte(task.BookingID.String())},
		{Key: []byte("source"), Value: []byte("ticketpoint")},
	}
}

func (p *KafkaDeliveryProducer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}
