package inbound

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/onurcolak/survey-campaign-bot/environments"
	"github.com/onurcolak/survey-campaign-bot/internal/conversation"
	"github.com/onurcolak/survey-campaign-bot/internal/domain"
	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
)

// Consumer reads inbound transport events from an AMQP queue.
type Consumer struct {
	router *Router
	config environments.InboundConfig

	conn *amqp.Connection
	ch   *amqp.Channel

	// onClose runs when the broker connection drops.
	onClose func(err *amqp.Error)
}

func NewConsumer(router *Router, config environments.InboundConfig) *Consumer {
	return &Consumer{
		router: router,
		config: config,
		onClose: func(err *amqp.Error) {
			logger.Fatalf("Inbound transport connection lost: %v", err)
		},
	}
}

// Start connects, declares the queue and consumes until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	conn, err := amqp.Dial(c.config.AMQPURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		c.config.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.conn, c.ch = conn, ch

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-closed:
				if ok && err != nil && ctx.Err() == nil {
					c.onClose(err)
				}
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				c.handleDelivery(ctx, d)
			}
		}
	}()

	logger.Infof("Consuming inbound events from queue %s", q.Name)

	return nil
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var msg domain.InboundMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.From == "" {
		logger.Warnf("Dropping malformed inbound event: %s", d.Body)
		_ = d.Ack(false)
		return
	}

	c.router.Enqueue(ctx, msg, func(outcome conversation.Outcome) {
		logger.Debugf("Inbound event from %s handled: %s", msg.From, outcome)
		if err := d.Ack(false); err != nil {
			logger.Warnf("Failed to ack inbound event: %v", err)
		}
	})
}

// Stop closes the channel and connection, then waits for queued events.
func (c *Consumer) Stop() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.router.Wait()
}
