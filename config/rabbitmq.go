package config

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

func NewRabbitMQ(cfg *Config) (*amqp.Connection, error) {
	// name the connection so it is identifiable in the broker's
	// management UI next to the sms listener
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName("trashtracktify-server")

	conn, err := amqp.DialConfig(cfg.RabbitMQURL, amqp.Config{Properties: props})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect: %w", err)
	}
	return conn, nil
}
