package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
)

// Trucks with onboard GPS devices report here; browser clients use the
// websocket fabric instead.
const topicPattern = "trashtracktify/truck/+/location"

type ledgerService interface {
	Record(truckID string, lat, lon float64, source domain.Source) error
}

type proximityService interface {
	Check(ctx context.Context, truckID string, lat, lon float64)
}

type locationBroadcaster interface {
	BroadcastLocation(pos domain.TruckPosition)
}

type locationMessage struct {
	TruckID   string   `json:"truckId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Timestamp int64    `json:"timestamp"`
}

type LocationSubscriber struct {
	client       mqtt.Client
	ledger       ledgerService
	proximitySvc proximityService
	broadcast    locationBroadcaster
}

func NewLocationSubscriber(client mqtt.Client, ledger ledgerService, proximitySvc proximityService, broadcast locationBroadcaster) *LocationSubscriber {
	return &LocationSubscriber{
		client:       client,
		ledger:       ledger,
		proximitySvc: proximitySvc,
		broadcast:    broadcast,
	}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("[telemetry] invalid location message: %v", err)
		return
	}

	if err := validateLocationMessage(&raw); err != nil {
		log.Printf("[telemetry] validation error: %v", err)
		return
	}

	if err := s.ledger.Record(raw.TruckID, *raw.Latitude, *raw.Longitude, domain.SourceDevice); err != nil {
		log.Printf("[telemetry] rejected location for %s: %v", raw.TruckID, err)
		return
	}

	ts := time.Now()
	if raw.Timestamp > 0 {
		ts = time.Unix(raw.Timestamp, 0)
	}
	s.broadcast.BroadcastLocation(domain.TruckPosition{
		TruckID:   raw.TruckID,
		Lat:       *raw.Latitude,
		Lon:       *raw.Longitude,
		Source:    domain.SourceDevice,
		Timestamp: ts,
	})

	s.proximitySvc.Check(context.Background(), raw.TruckID, *raw.Latitude, *raw.Longitude)
}

func validateLocationMessage(msg *locationMessage) error {
	if msg.TruckID == "" {
		return fmt.Errorf("truckId: required")
	}
	if msg.Latitude == nil || *msg.Latitude < -90 || *msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be present and between -90 and 90")
	}
	if msg.Longitude == nil || *msg.Longitude < -180 || *msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be present and between -180 and 180")
	}
	return nil
}
