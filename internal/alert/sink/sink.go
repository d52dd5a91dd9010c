// Package sink delivers alert payloads to external systems.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sod/sensord/internal/alert/model"
	"github.com/go-sod/sensord/internal/httputil"
)

type Type string

const (
	TypeWebhook Type = "WEBHOOK"
	TypeRedis   Type = "REDIS"
	TypeKafka   Type = "KAFKA"
	TypeMQTT    Type = "MQTT"
)

// Sink delivers an alert. Send is called concurrently for different alerts
// and must be safe for that.
type Sink interface {
	Name() string
	Send(ctx context.Context, a model.Alert) error
	Close() error
}

// Target describes one configured sink. Topic is the redis channel, kafka
// topic or mqtt topic depending on Type.
type Target struct {
	Name       string                    `json:"name"`
	Type       Type                      `json:"type"`
	URL        string                    `json:"url"`
	Brokers    []string                  `json:"brokers"`
	Topic      string                    `json:"topic"`
	HTTPConfig httputil.HTTPClientConfig `json:"httpConfig"`
}

func New(t Target, timeout time.Duration) (Sink, error) {
	if t.Name == "" {
		t.Name = string(t.Type)
	}
	switch t.Type {
	case TypeWebhook:
		return NewWebhook(t.Name, t.URL, t.HTTPConfig)
	case TypeRedis:
		return NewRedis(t.Name, t.URL, t.Topic)
	case TypeKafka:
		return NewKafka(t.Name, t.Brokers, t.Topic)
	case TypeMQTT:
		return NewMQTT(t.Name, t.URL, t.Topic, timeout)
	default:
		return nil, fmt.Errorf("unknown sink type: %q", t.Type)
	}
}
