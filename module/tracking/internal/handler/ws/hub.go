package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/service"
)

var _ service.Broadcaster = (*Hub)(nil)

// envelope is the wire frame for every fabric message.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub owns the set of connected clients and fans messages out to
// them. Truck state lives in the services, not here; a client
// disconnecting removes only its channel.
type Hub struct {
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("[ws] client %s connected", client.id)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("[ws] client %s disconnected", client.id)
		}
	}
}

// BroadcastLocation re-emits a position to every connected client,
// used for reports arriving off-fabric (device telemetry).
func (h *Hub) BroadcastLocation(pos domain.TruckPosition) {
	h.emitAll("location-update", pos)
}

func (h *Hub) BroadcastStatus(status domain.TruckStatus) {
	h.emitAll("truck-status", status)
}

func (h *Hub) BroadcastFull(full domain.TruckFull) {
	h.emitAll("truck-full", full)
}

func (h *Hub) BroadcastRoundTrip(trip domain.RoundTrip) {
	h.emitAll("round-trip", trip)
}

func (h *Hub) emitAll(event string, v interface{}) {
	msg, err := marshalEnvelope(event, v)
	if err != nil {
		log.Printf("[ws] marshal %s: %v", event, err)
		return
	}
	h.broadcastAll(msg)
}

func (h *Hub) broadcastAll(message []byte) {
	h.broadcastExcept(nil, message)
}

// broadcastExcept sends to every client but the sender. A client with
// a full send buffer is dropped rather than allowed to back-pressure
// the rest.
func (h *Hub) broadcastExcept(sender *Client, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client == sender {
			continue
		}
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
			log.Printf("[ws] client %s send buffer full, dropping", client.id)
		}
	}
}

func marshalEnvelope(event string, v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: event, Data: data})
}
