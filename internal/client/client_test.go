package client

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-sod/sensord/internal/reading/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	rows := []model.LabeledReading{
		model.NewLabeledReading(model.Reading{Temperature: 100, Humidity: 70, SoundVolume: 65}, true, time.Unix(2, 0)),
		model.NewLabeledReading(model.Reading{Temperature: 15, Humidity: 70, SoundVolume: 65}, false, time.Unix(1, 0)),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/node/data", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(model.Reading{Temperature: 15, Humidity: 70, SoundVolume: 65})
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]float64
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req) != 3 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"is_anomaly": true}`))
	})
	mux.HandleFunc("/latest_readings", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "10" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(model.NewTable(rows))
	})
	mux.HandleFunc("/latest_anomalies", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "internal error"}`, http.StatusInternalServerError)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ok", "rows": 2}`))
	})
	mux.HandleFunc("/slow/node/data", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	r, err := c.NodeData(ctx)
	if err != nil {
		t.Fatalf("node data: %v", err)
	}
	if r.Temperature != 15 {
		t.Errorf("node data got: %+v, expected temperature 15", r)
	}

	isAnomaly, err := c.Predict(ctx, r)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !isAnomaly {
		t.Errorf("predict got: false, expected: true")
	}

	rows, err := c.LatestReadings(ctx, 10)
	if err != nil {
		t.Fatalf("latest readings: %v", err)
	}
	if len(rows) != 2 || !rows[0].IsAnomaly || rows[0].Temperature != 100 {
		t.Errorf("latest readings got: %+v, expected the two server rows", rows)
	}

	h, err := c.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if h.Status != "ok" || h.Rows != 2 {
		t.Errorf("health got: %+v, expected ok with 2 rows", h)
	}
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	t.Run("service_error", func(t *testing.T) {
		c, _ := New(srv.URL)
		_, err := c.LatestAnomalies(ctx, 5)
		var sErr *ServiceError
		if !errors.As(err, &sErr) {
			t.Fatalf("error got: %v, expected: ServiceError", err)
		}
		if sErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("status got: %d, expected: %d", sErr.StatusCode, http.StatusInternalServerError)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		c, _ := New(srv.URL+"/slow", WithTimeout(50*time.Millisecond))
		_, err := c.NodeData(ctx)
		var tErr *TransientNetworkError
		if !errors.As(err, &tErr) {
			t.Fatalf("error got: %v, expected: TransientNetworkError", err)
		}
		if !tErr.Timeout() {
			t.Errorf("timeout got: false, expected: true for %v", err)
		}
	})

	t.Run("refused", func(t *testing.T) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		addr := l.Addr().String()
		l.Close()
		c, _ := New("http://" + addr)
		_, err = c.NodeData(ctx)
		var tErr *TransientNetworkError
		if !errors.As(err, &tErr) {
			t.Fatalf("error got: %v, expected: TransientNetworkError", err)
		}
	})
}

func TestNew_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8000", "://"} {
		if _, err := New(u); err == nil {
			t.Errorf("base url %q: expected an error", u)
		}
	}
}
