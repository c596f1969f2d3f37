package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jgoulah/dispatchtracker/internal/config"
	"github.com/jgoulah/dispatchtracker/pkg/models"
)

// Publisher mirrors committed records to an MQTT broker, one retained
// message per record, so dashboards on the broker side see the same log
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	timeout     time.Duration
}

// New connects to the broker
func New(mqttCfg config.MQTTConfig) (*Publisher, error) {
	if !mqttCfg.Enabled {
		return nil, fmt.Errorf("MQTT mirror is not enabled in config")
	}
	if mqttCfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	// Configure MQTT client options
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
	opts.SetClientID("dispatchtracker-" + uuid.NewString()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)

	if mqttCfg.Username != "" {
		opts.SetUsername(mqttCfg.Username)
	}
	if mqttCfg.Password != "" {
		opts.SetPassword(mqttCfg.Password)
	}

	// Create and connect client
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: mqttCfg.GetTopicPrefix(),
		timeout:     5 * time.Second,
	}, nil
}

// RecordTopic returns the retained topic for a record id
func RecordTopic(prefix, id string) string {
	return fmt.Sprintf("%s/records/%s", prefix, id)
}

// Publish sends a committed record as a retained message
func (p *Publisher) Publish(r models.Record) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	return p.send(RecordTopic(p.topicPrefix, r.ID), body)
}

// Remove clears the retained message of a deleted record
func (p *Publisher) Remove(id string) error {
	// An empty retained payload deletes the retained message
	return p.send(RecordTopic(p.topicPrefix, id), []byte{})
}

func (p *Publisher) send(topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publishing to %s: timed out after %s", topic, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
