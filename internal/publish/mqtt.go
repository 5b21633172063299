// Package publish republishes aggregated instrument snapshots to an MQTT
// broker as retained JSON, so late subscribers immediately see the current
// state of the bus.
package publish

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"nmealink/internal/feed"
)

type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
}

type MQTT struct {
	client mqtt.Client
	topic  string
}

func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt topic is required")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	return &MQTT{client: client, topic: cfg.Topic}, nil
}

// Publish sends one snapshot, retained at QoS 0. Snapshot rate is already
// bounded by the feed's batch interval, so no further throttling happens
// here.
func (p *MQTT) Publish(fix feed.AggregatedFix) error {
	payload, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	token := p.client.Publish(p.topic, 0, true, payload)
	token.Wait()
	return token.Error()
}

func (p *MQTT) Close() {
	if p == nil || p.client == nil {
		return
	}
	p.client.Disconnect(250)
}
