package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
)

type ledgerService interface {
	Record(truckID string, lat, lon float64, source domain.Source) error
}

type proximityService interface {
	Check(ctx context.Context, truckID string, lat, lon float64)
}

type statsService interface {
	TrackingStarted(truckID string)
	TrackingStopped(truckID string)
	LoadUpdate(truckID string, percent int, at time.Time)
}

// Inbound frames. Required coordinates are pointers so a missing field
// is distinguishable from zero and rejected at the boundary.
type locationUpdate struct {
	TruckID   string   `json:"truckId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Source    string   `json:"source"`
}

type truckEvent struct {
	TruckID string `json:"truckId"`
}

type loadUpdate struct {
	TruckID     string `json:"truckId"`
	PercentFull *int   `json:"percentFull"`
	Timestamp   int64  `json:"timestamp"`
}

// Gateway upgrades websocket connections and routes their frames into
// the tracking services.
type Gateway struct {
	hub       *Hub
	ledger    ledgerService
	proximity proximityService
	stats     statsService
	upgrader  websocket.Upgrader
}

func NewGateway(hub *Hub, ledger ledgerService, proximity proximityService, stats statsService) *Gateway {
	return &Gateway{
		hub:       hub,
		ledger:    ledger,
		proximity: proximity,
		stats:     stats,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (g *Gateway) Register(r *gin.RouterGroup) {
	r.GET("/ws", g.serve)
}

func (g *Gateway) serve(c *gin.Context) {
	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade: %v", err)
		return
	}

	client := &Client{
		id:    uuid.NewString(),
		hub:   g.hub,
		conn:  conn,
		send:  make(chan []byte, 256),
		route: g.route,
	}
	g.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// route dispatches one inbound frame. Malformed frames are logged and
// dropped; garbage on a best-effort stream never tears down the
// connection.
func (g *Gateway) route(c *Client, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("[ws] invalid frame from %s: %v", c.id, err)
		return
	}

	switch env.Event {
	case "update-location":
		g.handleLocation(c, env.Data)
	case "driver:tracking_started":
		var ev truckEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil || ev.TruckID == "" {
			log.Printf("[ws] invalid tracking_started from %s", c.id)
			return
		}
		g.stats.TrackingStarted(ev.TruckID)
	case "driver:tracking_stopped":
		var ev truckEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil || ev.TruckID == "" {
			log.Printf("[ws] invalid tracking_stopped from %s", c.id)
			return
		}
		g.stats.TrackingStopped(ev.TruckID)
	case "driver:load_update":
		var ev loadUpdate
		if err := json.Unmarshal(env.Data, &ev); err != nil || ev.TruckID == "" || ev.PercentFull == nil {
			log.Printf("[ws] invalid load_update from %s", c.id)
			return
		}
		at := time.Time{}
		if ev.Timestamp > 0 {
			at = time.UnixMilli(ev.Timestamp)
		}
		g.stats.LoadUpdate(ev.TruckID, *ev.PercentFull, at)
	default:
		log.Printf("[ws] unknown event %q from %s", env.Event, c.id)
	}
}

func (g *Gateway) handleLocation(c *Client, data json.RawMessage) {
	var report locationUpdate
	if err := json.Unmarshal(data, &report); err != nil {
		log.Printf("[ws] invalid location data from %s: %v", c.id, err)
		return
	}
	if report.TruckID == "" || report.Latitude == nil || report.Longitude == nil {
		log.Printf("[ws] incomplete location report from %s", c.id)
		return
	}

	source := domain.Source(report.Source)
	if err := g.ledger.Record(report.TruckID, *report.Latitude, *report.Longitude, source); err != nil {
		log.Printf("[ws] rejected location for %s: %v", report.TruckID, err)
		return
	}

	// relay verbatim to everyone but the sender, then evaluate
	// proximity so a slow dispatch never delays the map
	relay, err := json.Marshal(envelope{Event: "location-update", Data: data})
	if err == nil {
		g.hub.broadcastExcept(c, relay)
	}

	g.proximity.Check(context.Background(), report.TruckID, *report.Latitude, *report.Longitude)
}
