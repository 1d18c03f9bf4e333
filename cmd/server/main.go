package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/IPT1-RAFAEL/TrashTracktify/config"
	tracking "github.com/IPT1-RAFAEL/TrashTracktify/module/tracking"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/geo"
)

func main() {
	cfg := config.Load()

	db, err := config.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	// Map data is required for proximity notifications but not for
	// tracking itself; on a load failure the server stays up with an
	// empty index and spatial queries report no match.
	streets, err := geo.LoadStreets(cfg.StreetsPath)
	if err != nil {
		log.Printf("[server] street data: %v (proximity degraded)", err)
	}
	barangays, err := geo.LoadBarangays(cfg.BarangaysPath)
	if err != nil {
		log.Printf("[server] barangay data: %v (proximity degraded)", err)
	}
	index := geo.NewIndex(streets, barangays)
	if index.Empty() {
		log.Printf("[server] geo index empty, proximity notifications disabled")
	} else {
		log.Printf("[server] geo index: %d street markers, %d barangays", len(streets), len(barangays))
	}

	trackingModule, err := tracking.Build(db, amqpConn, mqttClient, index)
	if err != nil {
		log.Fatalf("tracking module: %v", err)
	}

	if err := trackingModule.Start(); err != nil {
		log.Fatalf("start tracking module: %v", err)
	}

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient)
	health.Register(r)

	trackingModule.RegisterRoutes(&r.RouterGroup)

	log.Printf("listening on :%s", cfg.HTTPPort)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatalf("server: %v", err)
	}
}
