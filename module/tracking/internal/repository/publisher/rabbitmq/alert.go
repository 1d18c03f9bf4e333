package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/internal/repository/publisher"
)

var _ publisher.AlertPublisher = (*AlertPublisher)(nil)

const (
	exchangeName = "trashtracktify.events"
	queueName    = "proximity_alerts"
)

type AlertPublisher struct {
	ch *amqp.Channel
}

func NewAlertPublisher(conn *amqp.Connection) (*AlertPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &AlertPublisher{ch: ch}, nil
}

func (p *AlertPublisher) PublishAlert(ctx context.Context, alert *domain.ProximityAlert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	return p.ch.PublishWithContext(ctx, exchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
