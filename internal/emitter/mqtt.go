// Package emitter publishes touch notifications to an MQTT broker.
package emitter

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publishTimeout bounds how long a publish may wait for the broker.
const publishTimeout = 2 * time.Second

// Config holds broker settings.
type Config struct {
	Broker   string // host:port
	ClientID string
	Topic    string
	QoS      byte
}

// Message is the JSON payload published per touch.
type Message struct {
	Event      string    `json:"event"`
	SessionID  string    `json:"session_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MQTTEmitter publishes touch events to a broker
type MQTTEmitter struct {
	cfg    Config
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// NewMQTTEmitter creates an emitter. Connect must be called before Publish.
func NewMQTTEmitter(cfg Config) *MQTTEmitter {
	e := &MQTTEmitter{cfg: cfg}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		e.setConnected(true)
		log.Printf("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		e.setConnected(false)
		log.Printf("MQTT connection lost: %v", err)
	}

	e.client = mqtt.NewClient(opts)
	return e
}

// Connect establishes the broker connection.
func (e *MQTTEmitter) Connect() error {
	token := e.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt connect to %s timed out", e.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", e.cfg.Broker, err)
	}
	return nil
}

// Publish sends msg to the configured topic.
func (e *MQTTEmitter) Publish(msg Message) error {
	payload, err := Encode(msg)
	if err != nil {
		return err
	}

	token := e.client.Publish(e.cfg.Topic, e.cfg.QoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		e.countError()
		return fmt.Errorf("mqtt publish to %s timed out", e.cfg.Topic)
	}
	if err := token.Error(); err != nil {
		e.countError()
		return fmt.Errorf("mqtt publish to %s: %w", e.cfg.Topic, err)
	}

	e.mu.Lock()
	e.published++
	e.mu.Unlock()
	return nil
}

// Close disconnects from the broker.
func (e *MQTTEmitter) Close() {
	if e.client.IsConnected() {
		e.client.Disconnect(250)
	}
	e.setConnected(false)
}

// Connected reports whether the broker connection is up.
func (e *MQTTEmitter) Connected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

// Stats returns published and failed publish counts.
func (e *MQTTEmitter) Stats() (published, failed uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.published, e.errors
}

func (e *MQTTEmitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *MQTTEmitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}

// Encode marshals msg to its wire payload.
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
