// Package messaging publishes settlement events to the configured broker.
package messaging

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/wekeepgrowing/payment-reconciler/internal/config"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/event"
	"github.com/wekeepgrowing/payment-reconciler/pkg/messaging"
	"go.uber.org/zap"
)

// Subscriber streams settlement events, used by ledgerctl watch
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan entity.SettlementEvent, error)
	Close() error
}

// NoopPublisher drops events when no broker is configured
type NoopPublisher struct {
	logger *zap.Logger
}

func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) PublishSettlement(ctx context.Context, evt entity.SettlementEvent) error {
	p.logger.Debug("Settlement event publish skipped", zap.String("tran_id", evt.TranID))
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}

// NewPublisher returns the publisher for messaging.driver. The redis driver
// shares redisClient with the plan cache.
func NewPublisher(cfg *config.MessagingConfig, redisClient *redis.Client, logger *zap.Logger) (event.SettlementPublisher, error) {
	logger = logger.Named("events")

	switch cfg.Driver {
	case config.MessagingRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("messaging driver redis requires redis.addr")
		}
		return NewRedisPublisher(messaging.NewRedisClientFrom(redisClient), cfg.Channel, logger), nil
	case config.MessagingRabbitMQ:
		publisher, err := NewRabbitMQPublisher(cfg.URL, cfg.Exchange, cfg.RoutingKey, logger)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case config.MessagingNone, "":
		return NewNoopPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unsupported messaging driver: %s", cfg.Driver)
	}
}

// NewSubscriber returns the subscriber matching messaging.driver
func NewSubscriber(cfg *config.MessagingConfig, redisClient *redis.Client, logger *zap.Logger) (Subscriber, error) {
	switch cfg.Driver {
	case config.MessagingRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("messaging driver redis requires redis.addr")
		}
		return NewRedisPublisher(messaging.NewRedisClientFrom(redisClient), cfg.Channel, logger), nil
	case config.MessagingRabbitMQ:
		subscriber, err := NewRabbitMQSubscriber(cfg.URL, cfg.Exchange, cfg.RoutingKey, logger)
		if err != nil {
			return nil, err
		}
		return subscriber, nil
	default:
		return nil, fmt.Errorf("messaging driver %q has no subscriber", cfg.Driver)
	}
}
