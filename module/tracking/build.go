package tracking

import (
	"database/sql"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/geo"
	handler "github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/internal/handler/http"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/internal/handler/subscriber"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/internal/handler/ws"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/internal/repository/database/postgres"
	mqttpub "github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/internal/repository/publisher/mqtt"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/internal/repository/publisher/rabbitmq"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/service"
)

type Module struct {
	Ledger     *service.Ledger
	Proximity  *service.ProximityService
	Stats      *service.StatsService
	Hub        *ws.Hub
	gateway    *ws.Gateway
	handler    *handler.TrackingHandler
	subscriber *subscriber.LocationSubscriber
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, index *geo.Index) (*Module, error) {
	directory := postgres.NewUserDirectory(db)
	smsPub := mqttpub.NewSMSPublisher(mqttClient)

	alertPub, err := rabbitmq.NewAlertPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("alert publisher: %w", err)
	}

	dispatcher := service.NewDispatcher(directory, smsPub, alertPub, 0)

	hub := ws.NewHub()
	ledger := service.NewLedger()
	proximity := service.NewProximityService(index, dispatcher, 0)
	stats := service.NewStatsService(hub)

	return &Module{
		Ledger:     ledger,
		Proximity:  proximity,
		Stats:      stats,
		Hub:        hub,
		gateway:    ws.NewGateway(hub, ledger, proximity, stats),
		handler:    handler.NewTrackingHandler(ledger, stats, index),
		subscriber: subscriber.NewLocationSubscriber(mqttClient, ledger, proximity, hub),
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.gateway.Register(r)
	m.handler.Register(r)
}

// Start runs the fan-out hub and attaches the device telemetry
// subscriber.
func (m *Module) Start() error {
	go m.Hub.Run()
	return m.subscriber.Start()
}
