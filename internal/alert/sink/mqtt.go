package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sod/sensord/internal/alert/model"
	"github.com/go-sod/sensord/internal/mqttutil"
)

type mqttSink struct {
	name      string
	topic     string
	publisher *mqttutil.Publisher
}

func NewMQTT(name, broker, topic string, timeout time.Duration) (*mqttSink, error) {
	if topic == "" {
		return nil, fmt.Errorf("mqtt sink %s: topic is required", name)
	}
	p, err := mqttutil.Connect(broker, "sensord-alert-"+name, timeout)
	if err != nil {
		return nil, fmt.Errorf("mqtt sink %s: %w", name, err)
	}
	return &mqttSink{name: name, topic: topic, publisher: p}, nil
}

func (s *mqttSink) Name() string { return s.name }

func (s *mqttSink) Send(ctx context.Context, a model.Alert) error {
	payload, err := a.Payload()
	if err != nil {
		return fmt.Errorf("unable encode json data: %w", err)
	}
	return s.publisher.Publish(ctx, s.topic, payload)
}

func (s *mqttSink) Close() error {
	s.publisher.Close()
	return nil
}
