package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"go.uber.org/zap"
)

const exchangeKind = "topic"

// RabbitMQPublisher publishes settlement events to a durable topic exchange
type RabbitMQPublisher struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// dial opens a connection and channel and declares the exchange
func dial(amqpURL, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return conn, ch, nil
}

func NewRabbitMQPublisher(amqpURL, exchange, routingKey string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	conn, ch, err := dial(amqpURL, exchange)
	if err != nil {
		return nil, err
	}

	return &RabbitMQPublisher{
		conn:       conn,
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

// PublishSettlement reopens the channel once when the broker closed it.
func (p *RabbitMQPublisher) PublishSettlement(ctx context.Context, evt entity.SettlementEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		MessageId:    evt.TranID,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg)
	if err == nil {
		return nil
	}

	p.logger.Warn("Publish failed, reopening channel",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", p.routingKey),
		zap.Error(err))

	ch, chErr := p.conn.Channel()
	if chErr != nil {
		return fmt.Errorf("failed to publish settlement event: %w", err)
	}
	p.channel = ch

	if err := p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish settlement event: %w", err)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// RabbitMQSubscriber consumes settlement events through an exclusive queue
// bound to the exchange.
type RabbitMQSubscriber struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

func NewRabbitMQSubscriber(amqpURL, exchange, routingKey string, logger *zap.Logger) (*RabbitMQSubscriber, error) {
	conn, ch, err := dial(amqpURL, exchange)
	if err != nil {
		return nil, err
	}
	return &RabbitMQSubscriber{
		conn:       conn,
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

func (s *RabbitMQSubscriber) Subscribe(ctx context.Context) (<-chan entity.SettlementEvent, error) {
	q, err := s.channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := s.channel.QueueBind(q.Name, s.routingKey, s.exchange, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	deliveries, err := s.channel.ConsumeWithContext(ctx, q.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to consume: %w", err)
	}

	events := make(chan entity.SettlementEvent)
	go func() {
		defer close(events)
		for d := range deliveries {
			var evt entity.SettlementEvent
			if err := json.Unmarshal(d.Body, &evt); err != nil {
				s.logger.Warn("Skipping undecodable settlement event",
					zap.String("routing_key", d.RoutingKey),
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

func (s *RabbitMQSubscriber) Close() error {
	s.channel.Close()
	return s.conn.Close()
}
