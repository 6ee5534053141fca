package kafka

import (
	"Ripple/internal/api/config"
	"Ripple/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	actionsConsumer sarama.ConsumerGroup
	actionsHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(
	cfg *config.Config,
	notificationService service.NotificationService,
) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	actionsConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaActionsConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}
	actionsHandler := NewActionsHandler(notificationService)

	return &ConsumerManager{
		actionsConsumer: actionsConsumer,
		actionsHandler:  actionsHandler,
	}, nil
}

// Start 启动所有消费者，阻塞直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	go func() {
		topic := cfg.KafkaActionsConsumer.Topic
		log.Info("Actions consumer started", "topic", topic)
		for {
			if err := m.actionsConsumer.Consume(ctx, []string{topic}, m.actionsHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.actionsConsumer.Close(); err != nil {
		log.Error("Failed to close actions consumer", "err", err)
	}
	return nil
}
