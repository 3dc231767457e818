package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BootstrapConsumer makes sure the topic exists before the reader joins the group.
func BootstrapConsumer(ctx context.Context, cfg *ConsumerConfig, partitions int, logger *zap.Logger) *Consumer {
	if len(cfg.Brokers) > 0 {
		if err := EnsureTopic(ctx, cfg.Brokers, TopicSpec{
			Name:              cfg.Topic,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
			MaxWait:           5 * time.Second,
		}, logger); err != nil {
			logger.Warn("topic bootstrap failed; relying on auto-create", zap.Error(err))
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	return NewConsumer(cfg)
}
