package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/pkg/messaging"
	"go.uber.org/zap"
)

// RedisPublisher publishes settlement events on a Redis pub/sub channel
type RedisPublisher struct {
	client  messaging.RedisClient
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(client messaging.RedisClient, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (p *RedisPublisher) PublishSettlement(ctx context.Context, evt entity.SettlementEvent) error {
	if err := p.client.Publish(ctx, p.channel, evt); err != nil {
		return fmt.Errorf("failed to publish settlement event: %w", err)
	}
	p.logger.Debug("Settlement event published",
		zap.String("channel", p.channel),
		zap.String("tran_id", evt.TranID))
	return nil
}

// Close leaves the shared Redis connection open; its owner closes it.
func (p *RedisPublisher) Close() error {
	return nil
}

// Subscribe streams settlement events from the channel until ctx ends.
// Messages that do not decode are logged and skipped.
func (p *RedisPublisher) Subscribe(ctx context.Context) (<-chan entity.SettlementEvent, error) {
	messages, err := p.client.Subscribe(ctx, p.channel)
	if err != nil {
		return nil, err
	}

	events := make(chan entity.SettlementEvent)
	go func() {
		defer close(events)
		for msg := range messages {
			var evt entity.SettlementEvent
			if err := json.Unmarshal(msg.Payload, &evt); err != nil {
				p.logger.Warn("Skipping undecodable settlement event",
					zap.String("channel", msg.Channel),
					zap.Error(err))
				continue
			}
			select {
			case events <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
