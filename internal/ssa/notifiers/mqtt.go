package notifiers

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/daniacca/achem-ssa/internal/ssa"
)

// MQTTNotifier publishes firing events to a topic on an MQTT broker, for
// deployments that already fan trajectory data out through a message bus
// rather than direct HTTP/websocket subscribers.
type MQTTNotifier struct {
	id     string
	topic  string
	qos    byte
	client mqtt.Client
}

// NewMQTTNotifier connects to brokerURL and returns a notifier publishing
// to topic at the given QoS (0, 1, or 2).
func NewMQTTNotifier(id, brokerURL, topic string, qos byte) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID("achem-ssa-" + id).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", brokerURL, token.Error())
	}

	return &MQTTNotifier{id: id, topic: topic, qos: qos, client: client}, nil
}

func (m *MQTTNotifier) ID() string   { return m.id }
func (m *MQTTNotifier) Type() string { return "mqtt" }

// Notify publishes event as JSON to the configured topic, honoring ctx's
// deadline as a publish timeout.
func (m *MQTTNotifier) Notify(ctx context.Context, event ssa.NotificationEvent) error {
	payload, err := event.JSON()
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	token := m.client.Publish(m.topic, m.qos, false, payload)

	deadline := 5 * time.Second
	if d, ok := ctx.Deadline(); ok {
		if remaining := time.Until(d); remaining > 0 {
			deadline = remaining
		}
	}

	if !token.WaitTimeout(deadline) {
		return fmt.Errorf("mqtt publish to %s timed out", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s failed: %w", m.topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTTNotifier) Close() error {
	m.client.Disconnect(250)
	return nil
}
