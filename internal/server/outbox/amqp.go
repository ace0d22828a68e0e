package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"github.com/streadway/amqp"
)

// publisher is the part of *amqp.Channel the sink uses.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPSink publishes events to a topic exchange with routing key
// "gophmatch.<kind>", e.g. "gophmatch.applied".
type AMQPSink struct {
	conn     *amqp.Connection
	ch       publisher
	exchange string
}

// DialAMQP connects to url and declares a durable topic exchange.
func DialAMQP(url, exchange string) (*AMQPSink, error) {
	const op = "outbox.DialAMQP"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &AMQPSink{conn: conn, ch: ch, exchange: exchange}, nil
}

func newAMQPSink(ch publisher, exchange string) *AMQPSink {
	return &AMQPSink{ch: ch, exchange: exchange}
}

func RoutingKey(kind models.EventKind) string {
	return "gophmatch." + strings.ToLower(string(kind))
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Publish(ctx context.Context, e *models.Event) error {
	const op = "outbox.AMQPSink.Publish"

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.ch.Publish(
		s.exchange,
		RoutingKey(e.Kind),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    e.ID.String(),
			Timestamp:    e.CreatedAt,
			Type:         string(e.Kind),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *AMQPSink) Close() error {
	err := s.ch.Close()
	if s.conn != nil {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
