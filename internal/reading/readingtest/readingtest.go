// Package readingtest holds the behavioural tests every reading.Store
// backend must pass.
package readingtest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/go-sod/sensord/internal/reading"
	"github.com/go-sod/sensord/internal/reading/model"
)

// NewStoreFn returns an empty store. Cleanup is registered on t.
type NewStoreFn func(t *testing.T) reading.Store

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// Run executes the store suite against stores returned by fn.
func Run(t *testing.T, fn NewStoreFn) {
	tests := []struct {
		name string
		test func(t *testing.T, s reading.Store)
	}{
		{name: "empty", test: testEmpty},
		{name: "latest_descending", test: testLatestDescending},
		{name: "anomalies_filter", test: testAnomaliesFilter},
		{name: "stable_reads", test: testStableReads},
		{name: "same_timestamp", test: testSameTimestamp},
		{name: "concurrent_appends", test: testConcurrentAppends},
		{name: "cancelled_context", test: testCancelledContext},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			test.test(t, fn(t))
		})
	}
}

func appendN(t *testing.T, s reading.Store, n int, anomalyEvery int) []model.LabeledReading {
	t.Helper()
	ctx := context.Background()
	rows := make([]model.LabeledReading, 0, n)
	for i := 0; i < n; i++ {
		r := model.NewLabeledReading(
			model.Reading{Temperature: float64(i), Humidity: 70, SoundVolume: 65},
			anomalyEvery > 0 && i%anomalyEvery == 0,
			base.Add(time.Duration(i)*time.Second),
		)
		if err := s.Append(ctx, &r); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		rows = append(rows, r)
	}
	return rows
}

func testEmpty(t *testing.T, s reading.Store) {
	ctx := context.Background()
	for _, anomaliesOnly := range []bool{false, true} {
		got, err := s.Latest(ctx, 10, anomaliesOnly)
		if err != nil {
			t.Fatalf("latest on empty store: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("latest on empty store got: %v, expected empty slice", got)
		}
	}
	n, err := s.Count(ctx)
	if err != nil || n != 0 {
		t.Errorf("count on empty store got: %d (%v), expected: 0", n, err)
	}
}

func testLatestDescending(t *testing.T, s reading.Store) {
	ctx := context.Background()
	rows := appendN(t, s, 12, 0)

	for i := 1; i < len(rows); i++ {
		if rows[i].Seq <= rows[i-1].Seq {
			t.Fatalf("seq not increasing: %d after %d", rows[i].Seq, rows[i-1].Seq)
		}
		if rows[i].ID.Compare(rows[i-1].ID) <= 0 {
			t.Fatalf("id not increasing: %s after %s", rows[i].ID, rows[i-1].ID)
		}
	}

	got, err := s.Latest(ctx, len(rows), false)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("latest len got: %d, expected: %d", len(got), len(rows))
	}
	for i := range got {
		expected := rows[len(rows)-1-i]
		if !equalRow(got[i], expected) {
			t.Errorf("row %d got: %s expected: %s", i, spew.Sdump(got[i]), spew.Sdump(expected))
		}
	}

	got, err = s.Latest(ctx, 5, false)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(got) != 5 || got[0].Seq != rows[11].Seq || got[4].Seq != rows[7].Seq {
		t.Errorf("latest(5) got: %s", spew.Sdump(got))
	}

	got, err = s.Latest(ctx, 0, false)
	if err != nil || len(got) != 0 {
		t.Errorf("latest(0) got: %v (%v), expected empty", got, err)
	}

	n, err := s.Count(ctx)
	if err != nil || n != len(rows) {
		t.Errorf("count got: %d (%v), expected: %d", n, err, len(rows))
	}
}

func testAnomaliesFilter(t *testing.T, s reading.Store) {
	ctx := context.Background()
	appendN(t, s, 20, 3)

	all, err := s.Latest(ctx, 100, false)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	var expected []model.LabeledReading
	for _, r := range all {
		if r.IsAnomaly {
			expected = append(expected, r)
		}
	}
	for _, k := range []int{1, 3, len(expected), 100} {
		got, err := s.Latest(ctx, k, true)
		if err != nil {
			t.Fatalf("latest anomalies: %v", err)
		}
		want := expected
		if k < len(want) {
			want = want[:k]
		}
		if len(got) != len(want) {
			t.Fatalf("latest anomalies(%d) len got: %d, expected: %d", k, len(got), len(want))
		}
		for i := range got {
			if !got[i].IsAnomaly || !equalRow(got[i], want[i]) {
				t.Errorf("anomaly %d got: %s expected: %s", i, spew.Sdump(got[i]), spew.Sdump(want[i]))
			}
		}
	}
}

func testStableReads(t *testing.T, s reading.Store) {
	ctx := context.Background()
	appendN(t, s, 8, 2)
	first, err := s.Latest(ctx, 8, false)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := s.Latest(ctx, 8, false)
		if err != nil {
			t.Fatalf("latest: %v", err)
		}
		for j := range first {
			if !equalRow(first[j], again[j]) {
				t.Fatalf("read %d changed row %d: %s -> %s", i, j, spew.Sdump(first[j]), spew.Sdump(again[j]))
			}
		}
	}
}

func testSameTimestamp(t *testing.T, s reading.Store) {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		r := model.NewLabeledReading(model.Reading{Temperature: float64(i)}, false, base)
		if err := s.Append(ctx, &r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := s.Latest(ctx, 5, false)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Errorf("timestamps must be unique and ordered, got %v then %v", got[i-1].Timestamp, got[i].Timestamp)
		}
	}
}

func testConcurrentAppends(t *testing.T, s reading.Store) {
	ctx := context.Background()
	const writers = 32

	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := model.NewLabeledReading(model.Reading{Temperature: float64(i), Humidity: float64(i * 2)}, i%2 == 0, time.Now())
			errCh <- s.Append(ctx, &r)
		}()
		// readers run alongside the writers and must never see a torn row
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := s.Latest(ctx, writers, false)
			if err != nil {
				errCh <- err
				return
			}
			for _, r := range rows {
				if r.Humidity != r.Temperature*2 {
					t.Errorf("torn row: %s", spew.Sdump(r))
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent access: %v", err)
		}
	}

	rows, err := s.Latest(ctx, writers*2, false)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(rows) != writers {
		t.Fatalf("stored rows got: %d, expected: %d", len(rows), writers)
	}
	seqs := map[uint64]bool{}
	stamps := map[int64]bool{}
	temps := map[float64]bool{}
	for _, r := range rows {
		if seqs[r.Seq] || stamps[r.Timestamp.UnixNano()] {
			t.Errorf("duplicate key: %s", spew.Sdump(r))
		}
		seqs[r.Seq], stamps[r.Timestamp.UnixNano()], temps[r.Temperature] = true, true, true
	}
	if len(temps) != writers {
		t.Errorf("distinct readings got: %d, expected: %d", len(temps), writers)
	}
}

func testCancelledContext(t *testing.T, s reading.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := model.NewLabeledReading(model.Reading{}, false, base)
	if err := s.Append(ctx, &r); err == nil {
		t.Errorf("append with cancelled context must fail")
	}
	n, err := s.Count(context.Background())
	if err != nil || n != 0 {
		t.Errorf("count after cancelled append got: %d (%v), expected: 0", n, err)
	}
}

func equalRow(a, b model.LabeledReading) bool {
	return a.ID == b.ID &&
		a.Seq == b.Seq &&
		a.Reading == b.Reading &&
		a.IsAnomaly == b.IsAnomaly &&
		a.Timestamp.Equal(b.Timestamp)
}
