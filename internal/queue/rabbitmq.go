package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/streadway/amqp"
)

const (
	GeneratedQueue = "wrapped_generated"
	WarmupQueue    = "wrapped_warmup"
)

// * Channel is the part of *amqp.Channel the queue uses
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel Channel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("connected to rabbitmq successfully 🎉")
	return &RabbitMQ{
		conn:    conn,
		channel: channel,
	}, nil
}

func newWithChannel(channel Channel) *RabbitMQ {
	return &RabbitMQ{channel: channel}
}

func (r *RabbitMQ) declare(name string) (amqp.Queue, error) {
	return r.channel.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
}

// * PublishGenerated announces a freshly computed wrapped record
func (r *RabbitMQ) PublishGenerated(ctx context.Context, event models.GeneratedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	queue, err := r.declare(GeneratedQueue)
	if err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return r.channel.Publish(
		"",
		queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Type:         "wrapped.generated",
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// * PublishWarmup queues a username for background resolution
func (r *RabbitMQ) PublishWarmup(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	queue, err := r.declare(WarmupQueue)
	if err != nil {
		return err
	}

	body, err := json.Marshal(models.WarmupRequest{Username: username})
	if err != nil {
		return err
	}

	return r.channel.Publish(
		"",
		queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// * ConsumeWarmupRequests hands each queued username to handler until ctx is done or the
// * delivery channel closes. Malformed messages are logged and dropped.
func (r *RabbitMQ) ConsumeWarmupRequests(ctx context.Context, handler func(ctx context.Context, username string) error) error {
	queue, err := r.declare(WarmupQueue)
	if err != nil {
		return err
	}

	msgs, err := r.channel.Consume(
		queue.Name,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("stopping warm-up consumer")
				return
			case d, ok := <-msgs:
				if !ok {
					logger.Warn("warm-up delivery channel closed")
					return
				}

				var msg models.WarmupRequest
				if err := json.Unmarshal(d.Body, &msg); err != nil {
					logger.Error("Error decoding warm-up message: %v", err)
					continue
				}

				if err := handler(ctx, msg.Username); err != nil {
					logger.Error("Error handling warm-up request for %s: %v", msg.Username, err)
				}
			}
		}
	}()

	return nil
}

func (r *RabbitMQ) Close() error {
	var result *multierror.Error
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
