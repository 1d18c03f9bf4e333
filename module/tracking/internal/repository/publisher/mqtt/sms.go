package mqtt

import (
	"context"
	"fmt"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/internal/repository/publisher"
)

var _ publisher.SMSPublisher = (*SMSPublisher)(nil)

// smsTopic and the batch_sms payload shape are the contract with the
// downstream SMS gateway.
const smsTopic = "trashtracktify/sms/send"

type SMSPublisher struct {
	client paho.Client
}

func NewSMSPublisher(client paho.Client) *SMSPublisher {
	return &SMSPublisher{client: client}
}

func (p *SMSPublisher) PublishBatch(_ context.Context, message string, recipients []string) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	payload := fmt.Sprintf("batch_sms:%s (%s)", message, strings.Join(recipients, ","))

	token := p.client.Publish(smsTopic, 1, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish sms command: %w", err)
	}
	return nil
}
