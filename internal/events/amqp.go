package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON events to a durable topic exchange.
type AMQPPublisher struct {
	conn       *amqp.Connection
	exchange   string
	routingKey string
	logger     *zap.Logger

	mu sync.Mutex
	ch channel
}

// Option configures an AMQPPublisher.
type Option func(*AMQPPublisher)

// WithLogger sets the publisher's logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *AMQPPublisher) { p.logger = l }
}

// DialAMQP connects to url and declares exchange as a durable topic exchange.
func DialAMQP(url, exchange, routingKey string, opts ...Option) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	p, err := newAMQPPublisher(ch, exchange, routingKey, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch channel, exchange, routingKey string, opts ...Option) (*AMQPPublisher, error) {
	if exchange == "" {
		return nil, errors.New("amqp: exchange is required")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("amqp declare exchange %s: %w", exchange, err)
	}
	p := &AMQPPublisher{ch: ch, exchange: exchange, routingKey: routingKey, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// PublishBatch sends ev as a persistent JSON message.
func (p *AMQPPublisher) PublishBatch(ctx context.Context, ev BatchCompleted) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.BatchID,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	p.logger.Debug("batch event published",
		zap.String("batch_id", ev.BatchID),
		zap.String("exchange", p.exchange),
		zap.String("routing_key", p.routingKey))
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
