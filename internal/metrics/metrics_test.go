package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opencensus.io/stats/view"
)

func TestRegister_Idempotent(t *testing.T) {
	if err := Register(); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestRecordPrediction(t *testing.T) {
	if err := Register(); err != nil {
		t.Fatalf("register: %v", err)
	}
	ctx := context.Background()
	RecordPrediction(ctx, true, 3*time.Millisecond)
	RecordPrediction(ctx, false, time.Millisecond)

	rows, err := view.RetrieveData("predictions_total")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	got := map[string]int64{}
	for _, row := range rows {
		for _, tg := range row.Tags {
			got[tg.Value] = row.Data.(*view.CountData).Value
		}
	}
	if got["true"] < 1 || got["false"] < 1 {
		t.Errorf("predictions_total by label got: %v, expected both labels recorded", got)
	}
}

func TestHandler(t *testing.T) {
	if err := Register(); err != nil {
		t.Fatalf("register: %v", err)
	}
	h, err := Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	RecordAppendError(context.Background())

	// recording is asynchronous; wait until the view holds the row
	deadline := time.Now().Add(2 * time.Second)
	for {
		rows, err := view.RetrieveData("store_append_errors_total")
		if err != nil {
			t.Fatalf("retrieve: %v", err)
		}
		if len(rows) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("store_append_errors_total got no rows")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if rec.Code != 200 {
		t.Fatalf("status got: %d, expected: 200", rec.Code)
	}
	if !strings.Contains(string(body), "sensord_store_append_errors_total") {
		t.Errorf("exposition got: %s, expected sensord_store_append_errors_total", body)
	}
}
