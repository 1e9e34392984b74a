package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ticketpoint/internal/shared/config"
	"ticketpoint/pkg/logger"

	"github.com/IBM/sarama"
)

type ConsumerConfig struct {
	Brokers           []string
	GroupID           string
	Topics            []string
	ClientID          string
	SessionTimeoutMs  int
	HeartbeatMs       int
	RetryBackoffMs    int
	MaxProcessingTime time.Duration
	OffsetOldest      bool
	Retry             RetryPolicy
}

func DefaultConsumerConfig(kafka config.KafkaConfig, delivery config.DeliveryConfig) *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:           kafka.Brokers,
		GroupID:           kafka.ConsumerGroup,
		Topics:            []string{kafka.DeliveryTopic},
		ClientID:          kafka.ClientID,
		SessionTimeoutMs:  30000,
		HeartbeatMs:       3000,
		RetryBackoffMs:    100,
		MaxProcessingTime: 5 * time.Minute,
		OffsetOldest:      true,
		Retry: RetryPolicy{
			MaxRetries: delivery.MaxRetries,
			Backoff:    delivery.RetryBackoff,
		},
	}
}

// KafkaDeliveryConsumer runs delivery workers as members of a consumer group
type KafkaDeliveryConsumer struct {
	group   sarama.ConsumerGroup
	config  *ConsumerConfig
	handler TaskHandler
	log     *logger.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewKafkaDeliveryConsumer(cfg *ConsumerConfig, handler TaskHandler, log *logger.Logger) (*KafkaDeliveryConsumer, error) {
	sc := sarama.NewConfig()
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}
	sc.Consumer.Group.Session.Timeout = time.Duration(cfg.SessionTimeoutMs) * time.Millisecond
	sc.Consumer.Group.Heartbeat.Interval = time.Duration(cfg.HeartbeatMs) * time.Millisecond
	sc.Consumer.Retry.Backoff = time.Duration(cfg.RetryBackoffMs) * time.Millisecond
	sc.Consumer.MaxProcessingTime = cfg.MaxProcessingTime
	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.AutoCommit.Enable = true
	sc.Consumer.Offsets.AutoCommit.Interval = time.Second
	if cfg.OffsetOldest {
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return newKafkaDeliveryConsumer(group, cfg, handler, log), nil
}

func newKafkaDeliveryConsumer(group sarama.ConsumerGroup, cfg *ConsumerConfig, handler TaskHandler, log *logger.Logger) *KafkaDeliveryConsumer {
	if log == nil {
		log = logger.GetDefault()
	}
	return &KafkaDeliveryConsumer{
		group:   group,
		config:  cfg,
		handler: handler,
		log:     log.WithComponent("delivery_consumer"),
	}
}

// Start joins the group. Sarama runs one ConsumeClaim per assigned
// partition, so parallelism follows the topic's partition count.
func (c *KafkaDeliveryConsumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	go c.handleErrors()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runWorker(ctx, 0)
	}()

	c.log.Info("Delivery consumer started", "group", c.config.GroupID, "topics", c.config.Topics)
}

func (c *KafkaDeliveryConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &deliveryClaimHandler{
		workerID: workerID,
		handler:  c.handler,
		retry:    c.config.Retry,
		log:      c.log,
	}

	for {
		if err := c.group.Consume(ctx, c.config.Topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			c.log.Warn("Error consuming delivery tasks", "worker", workerID, "error", err.Error())
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *KafkaDeliveryConsumer) handleErrors() {
	for err := range c.group.Errors() {
		c.log.Warn("Consumer group error", "error", err.Error())
	}
}

func (c *KafkaDeliveryConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	if err := c.group.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	c.log.Info("Delivery consumers stopped")
	return nil
}

type deliveryClaimHandler struct {
	workerID int
	handler  TaskHandler
	retry    RetryPolicy
	log      *logger.Logger
}

func (h *deliveryClaimHandler) Setup(sarama.ConsumerGroupSession) error {
	h.log.Debug("Consumer group session started", "worker", h.workerID)
	return nil
}

func (h *deliveryClaimHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.log.Debug("Consumer group session ended", "worker", h.workerID)
	return nil
}

func (h *deliveryClaimHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			// Tasks are marked even when delivery failed: the failure is stored
			// on the booking and a resend enqueues a fresh task.
			if err := h.processMessage(session.Context(), message); err != nil {
				h.log.Warn("Delivery task failed",
					"worker", h.workerID,
					"partition", message.Partition,
					"offset", message.Offset,
					"error", err.Error(),
				)
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *deliveryClaimHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	task, err := DecodeDeliveryTask(message.Value)
	if err != nil {
		return fmt.Errorf("failed to decode delivery task: %w", err)
	}

	_, err = executeWithRetry(ctx, h.retry, h.handler, task, h.log)
	return err
}
