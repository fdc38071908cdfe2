package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

var _ usecase.EventPublisher = (*Producer)(nil)

// channelPublisher is the part of *amqp.Channel the producer uses.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Producer struct {
	Ch channelPublisher
}

func NewProducer(ch *amqp.Channel) *Producer {
	return &Producer{Ch: ch}
}

// PublishLifecycle sends ev to the leads exchange, routed by its type.
func (p *Producer) PublishLifecycle(ctx context.Context, ev entity.LifecycleEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		string(ev.Type),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.OccurredAt,
			Type:         string(ev.Type),
		},
	)
	if err != nil {
		middleware.RecordPublishError()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}
