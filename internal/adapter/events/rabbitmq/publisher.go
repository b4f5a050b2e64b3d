package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shipost/wallet-ledger/config"
	"github.com/shipost/wallet-ledger/internal/core/domain"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher emits committed ledger entries to a durable topic exchange.
// Downstream services (billing exports, notifications) bind with patterns
// like "ledger.entry.*" or "ledger.entry.debit".
type Publisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	log      zerolog.Logger
}

// NewPublisher dials RabbitMQ, opens a channel and declares the exchange.
func NewPublisher(cfg config.AMQPConfig, log zerolog.Logger) (*Publisher, error) {
	// Bounded dial timeout so startup does not hang on a dead broker.
	conn, err := amqp091.DialConfig(cfg.URL, amqp091.Config{
		Dial: amqp091.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("dialing rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // autoDelete
		false,        // internal
		false,        // noWait
		nil,          // args
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange: %w", err)
	}

	log.Info().
		Str("exchange", cfg.Exchange).
		Msg("RabbitMQ publisher connected")

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		log:      log,
	}, nil
}

// PublishEntry emits a committed entry with routing key
// "ledger.entry.<direction>". The entry is already durable in Postgres, so
// a failed publish is logged and returned but never rolls anything back.
func (p *Publisher) PublishEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}

	routingKey := "ledger.entry." + strings.ToLower(string(entry.Direction))

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			MessageId:   entry.ID.String(),
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		p.log.Warn().
			Err(err).
			Str("entry_id", entry.ID.String()).
			Str("routing_key", routingKey).
			Msg("Failed to publish ledger entry event")
		return fmt.Errorf("publishing entry event: %w", err)
	}

	return nil
}

// Close gracefully closes the channel and connection.
func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// NopPublisher drops every event. It stands in when the broker is disabled
// or unreachable at startup so ledger writes keep working.
type NopPublisher struct {
	log zerolog.Logger
}

// NewNopPublisher creates a publisher that discards all events.
func NewNopPublisher(log zerolog.Logger) *NopPublisher {
	return &NopPublisher{log: log}
}

func (p *NopPublisher) PublishEntry(_ context.Context, entry *domain.LedgerEntry) error {
	p.log.Debug().
		Str("entry_id", entry.ID.String()).
		Msg("Event publishing disabled; entry event dropped")
	return nil
}

func (p *NopPublisher) Close() {}
