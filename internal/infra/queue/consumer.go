package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

// Consumer reads lifecycle events and sends the supervisor notifications
// they call for, outside the request that produced them.
type Consumer struct {
	Channel  *amqp.Channel
	Notifier usecase.Notifier
}

func NewConsumer(ch *amqp.Channel, notifier usecase.Notifier) *Consumer {
	return &Consumer{Channel: ch, Notifier: notifier}
}

// Start consumes queueName until ctx is done or the channel closes.
func (c *Consumer) Start(ctx context.Context, queueName string) error {
	msgs, err := c.Channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	log.Printf("[queue] consuming '%s'", queueName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				log.Printf("[queue] delivery channel closed")
				return nil
			}
			if err := c.handle(ctx, d.Body); err != nil {
				log.Printf("[queue] event rejected: %v", err)
				d.Nack(false, false)
				continue
			}
			d.Ack(false)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var ev entity.LifecycleEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}

	switch ev.Type {
	case entity.EventLeadTakenOver:
		if c.Notifier == nil {
			return nil
		}
		return c.Notifier.NotifyTakeOver(ctx, usecase.TakeOverNotice{
			LeadID:        ev.LeadID,
			ContactName:   ev.ContactName,
			PreviousAgent: ev.PreviousAgent,
			NewAgent:      ev.Agent,
		})
	case "":
		return fmt.Errorf("event without type")
	default:
		log.Printf("[queue] %s lead=%s agent=%s actor=%s", ev.Type, ev.LeadID, ev.Agent, ev.Actor)
		return nil
	}
}
