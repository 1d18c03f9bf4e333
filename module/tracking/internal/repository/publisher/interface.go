package publisher

import (
	"context"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
)

// SMSPublisher hands a batched text message to the outbound SMS
// gateway. Delivery is best-effort.
type SMSPublisher interface {
	PublishBatch(ctx context.Context, message string, recipients []string) error
}

// AlertPublisher fans a structured proximity alert out to downstream
// consumers.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *domain.ProximityAlert) error
}
