package sink

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/go-sod/sensord/internal/alert/model"
)

type kafkaSink struct {
	name   string
	writer *kafka.Writer
}

func NewKafka(name string, brokers []string, topic string) (*kafkaSink, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka sink %s: brokers and topic are required", name)
	}
	return &kafkaSink{
		name: name,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}, nil
}

func (s *kafkaSink) Name() string { return s.name }

// Send keys the message by alert id so redeliveries land on one partition.
func (s *kafkaSink) Send(ctx context.Context, a model.Alert) error {
	payload, err := a.Payload()
	if err != nil {
		return fmt.Errorf("unable encode json data: %w", err)
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(a.ID.String()),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("kafka write to %s: %w", s.writer.Topic, err)
	}
	return nil
}

func (s *kafkaSink) Close() error {
	return s.writer.Close()
}
