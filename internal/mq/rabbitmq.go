package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inhahackathon/foodmarket/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultExchange    = "foodmarket.events"
	defaultQueueSuffix = ".worker"
	deadLetterSuffix   = ".dead"
	appID              = "foodmarket"
)

// RabbitMQClient publishes every channel to one topic exchange with the channel
// as routing key. Each Subscribe gets its own AMQP channel and a queue bound to
// the routing key; permanently failed messages are dead-lettered.
type RabbitMQClient struct {
	conn *amqp.Connection
	cfg  config.RabbitMQConfig

	mu  sync.Mutex
	pub *amqp.Channel
}

func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if cfg.Exchange == "" {
		cfg.Exchange = defaultExchange
	}
	if cfg.QueueSuffix == "" {
		cfg.QueueSuffix = defaultQueueSuffix
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	pub, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := declareExchanges(pub, cfg); err != nil {
		_ = pub.Close()
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQClient{conn: conn, cfg: cfg, pub: pub}, nil
}

func declareExchanges(ch *amqp.Channel, cfg config.RabbitMQConfig) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	dlx := cfg.Exchange + deadLetterSuffix
	if err := ch.ExchangeDeclare(dlx, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", dlx, err)
	}
	return nil
}

func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq channel is required")
	}

	msg := amqp.Publishing{
		ContentType:  attrs["content-type"],
		DeliveryMode: amqp.Transient,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		AppId:        appID,
		Type:         channel,
		Headers:      attributesToHeaders(attrs),
		Body:         data,
	}
	if msg.ContentType == "" {
		msg.ContentType = "application/octet-stream"
	}
	if r.cfg.QueueDurable {
		msg.DeliveryMode = amqp.Persistent
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.pub.PublishWithContext(ctx, r.cfg.Exchange, channel, false, false, msg); err != nil {
		return "", fmt.Errorf("publish to %s: %w", channel, err)
	}
	return msg.MessageId, nil
}

// Subscribe consumes "{channel}{QueueSuffix}" until ctx is done. Transient
// handler errors requeue the delivery; permanent ones dead-letter it.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if r.cfg.PrefetchCount > 0 {
		if err := ch.Qos(r.cfg.PrefetchCount, 0, false); err != nil {
			return err
		}
	}
	queue, err := r.declareQueues(ch, channel)
	if err != nil {
		return err
	}

	consumerTag := appID + "-" + uuid.NewString()
	deliveries, err := ch.ConsumeWithContext(ctx, queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			err := handler(ctx, Message{
				ID:         delivery.MessageId,
				Data:       delivery.Body,
				Attributes: headersToAttributes(delivery.Headers),
			})
			if err != nil {
				_ = delivery.Nack(false, !IsPermanent(err))
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// declareQueues sets up the work queue for channel and its dead-letter queue.
func (r *RabbitMQClient) declareQueues(ch *amqp.Channel, channel string) (string, error) {
	dlx := r.cfg.Exchange + deadLetterSuffix
	dead := channel + deadLetterSuffix
	if _, err := ch.QueueDeclare(dead, r.cfg.QueueDurable, false, false, false, nil); err != nil {
		return "", fmt.Errorf("declare queue %s: %w", dead, err)
	}
	if err := ch.QueueBind(dead, channel, dlx, false, nil); err != nil {
		return "", fmt.Errorf("bind queue %s: %w", dead, err)
	}

	work := channel + r.cfg.QueueSuffix
	args := amqp.Table{"x-dead-letter-exchange": dlx}
	if _, err := ch.QueueDeclare(work, r.cfg.QueueDurable, false, false, false, args); err != nil {
		return "", fmt.Errorf("declare queue %s: %w", work, err)
	}
	if err := ch.QueueBind(work, channel, r.cfg.Exchange, false, nil); err != nil {
		return "", fmt.Errorf("bind queue %s: %w", work, err)
	}
	return work, nil
}

func (r *RabbitMQClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pub != nil {
		_ = r.pub.Close()
	}
	return r.conn.Close()
}

func attributesToHeaders(attrs map[string]string) amqp.Table {
	headers := make(amqp.Table, len(attrs))
	for key, value := range attrs {
		headers[key] = value
	}
	return headers
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}
