// Package mqttutil connects to an MQTT broker and publishes JSON payloads.
package mqttutil

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const DefaultTimeout = 5 * time.Second

// Publisher sends payloads to a single broker. The zero timeout means
// DefaultTimeout.
type Publisher struct {
	client  mqtt.Client
	timeout time.Duration
}

func Connect(broker, clientID string, timeout time.Duration) (*Publisher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true)
	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect to %s: timed out after %s", broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	return &Publisher{client: c, timeout: timeout}, nil
}

// Publish sends payload with QoS 1 and waits for the broker acknowledgement,
// the publisher timeout or ctx, whichever comes first.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.timeout):
		return fmt.Errorf("publish to %s: timed out after %s", topic, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
