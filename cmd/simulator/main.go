package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Random-walks a small truck fleet around Malabon and publishes their
// positions the way an onboard device would.

type locationMessage struct {
	TruckID   string  `json:"truckId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

const (
	centerLat = 14.667
	centerLon = 120.967
	stepDeg   = 0.0002 // roughly 20m per tick
)

type truck struct {
	id  string
	lat float64
	lon float64
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("trashtracktify-simulator")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	trucks := make([]*truck, 3)
	for i := range trucks {
		trucks[i] = &truck{
			id:  fmt.Sprintf("Truck-%02d", i+1),
			lat: centerLat + (rand.Float64()-0.5)*0.01,
			lon: centerLon + (rand.Float64()-0.5)*0.01,
		}
	}

	log.Printf("connected to %s, publishing every %ds...", broker, intervalSec)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		t := trucks[rand.Intn(len(trucks))]
		t.lat += (rand.Float64() - 0.5) * stepDeg
		t.lon += (rand.Float64() - 0.5) * stepDeg

		msg := locationMessage{
			TruckID:   t.id,
			Latitude:  t.lat,
			Longitude: t.lon,
			Timestamp: time.Now().Unix(),
		}

		payload, _ := json.Marshal(msg)
		topic := fmt.Sprintf("trashtracktify/truck/%s/location", t.id)

		token := client.Publish(topic, 1, false, payload)
		token.Wait()

		log.Printf("published to %s: %s", topic, payload)
	}
}
