package sink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-sod/sensord/internal/alert/model"
	readingModel "github.com/go-sod/sensord/internal/reading/model"
)

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target Target
	}{
		{name: "unknown_type", target: Target{Type: "SMTP"}},
		{name: "webhook_bad_url", target: Target{Type: TypeWebhook, URL: "not a url"}},
		{name: "redis_no_channel", target: Target{Type: TypeRedis, URL: "redis://localhost:6379/0"}},
		{name: "redis_bad_url", target: Target{Type: TypeRedis, URL: "http://localhost", Topic: "alerts"}},
		{name: "kafka_no_brokers", target: Target{Type: TypeKafka, Topic: "alerts"}},
		{name: "mqtt_no_topic", target: Target{Type: TypeMQTT, URL: "tcp://localhost:1883"}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			if s, err := New(test.target, time.Second); err == nil {
				s.Close()
				t.Errorf("target %+v: expected an error", test.target)
			}
		})
	}
}

func TestNew_Names(t *testing.T) {
	s, err := New(Target{Type: TypeKafka, Brokers: []string{"localhost:9092"}, Topic: "alerts"}, time.Second)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}
	defer s.Close()
	if s.Name() != string(TypeKafka) {
		t.Errorf("name got: %q, expected: %q", s.Name(), TypeKafka)
	}
}

func TestWebhook_Send(t *testing.T) {
	row := readingModel.NewLabeledReading(readingModel.Reading{Temperature: 100, Humidity: 70, SoundVolume: 65}, true, time.Now())
	alert := model.NewAlert([]readingModel.LabeledReading{row}, []string{"hook"})

	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK},
		{name: "accepted", status: http.StatusAccepted},
		{name: "server_error", status: http.StatusBadGateway, wantErr: true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var got model.Alert
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(body, &got)
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("content type got: %q, expected: application/json", r.Header.Get("Content-Type"))
				}
				w.WriteHeader(test.status)
			}))
			defer srv.Close()

			s, err := New(Target{Name: "hook", Type: TypeWebhook, URL: srv.URL}, time.Second)
			if err != nil {
				t.Fatalf("new webhook: %v", err)
			}
			err = s.Send(context.Background(), alert)
			if (err != nil) != test.wantErr {
				t.Fatalf("send error got: %v, expected error: %v", err, test.wantErr)
			}
			if got.ID != alert.ID || len(got.Readings) != 1 || got.Readings[0].Temperature != 100 {
				t.Errorf("payload got: %+v, expected: %+v", got, alert)
			}
			if len(got.Remaining) != 0 {
				t.Errorf("payload must not carry delivery state, got: %v", got.Remaining)
			}
		})
	}
}
