package config

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
)

// HealthChecker reports the three backends the tracking pipeline needs:
// postgres for the resident directory, mqtt for telemetry and the sms
// gateway, rabbitmq for the alert fanout.
type HealthChecker struct {
	db       *sql.DB
	amqpConn *amqp.Connection
	mqtt     mqtt.Client
}

func NewHealthChecker(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client) *HealthChecker {
	return &HealthChecker{db: db, amqpConn: amqpConn, mqtt: mqttClient}
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	checks := []struct {
		name  string
		check func(ctx context.Context) error
	}{
		{"postgres", func(ctx context.Context) error { return h.db.PingContext(ctx) }},
		{"rabbitmq", func(context.Context) error {
			if h.amqpConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}},
		{"mqtt", func(context.Context) error {
			if !h.mqtt.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		}},
	}

	status := http.StatusOK
	deps := gin.H{}
	for _, dep := range checks {
		if err := dep.check(c.Request.Context()); err != nil {
			deps[dep.name] = gin.H{"status": "down", "error": err.Error()}
			status = http.StatusServiceUnavailable
		} else {
			deps[dep.name] = gin.H{"status": "up"}
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"service":      "trashtracktify",
		"status":       overall,
		"dependencies": deps,
	})
}
