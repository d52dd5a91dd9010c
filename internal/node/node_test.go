package node

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-sod/sensord/internal/reading/model"
	"github.com/go-sod/sensord/internal/synth"
)

// counter yields readings whose three fields are all equal to the call count,
// so a torn snapshot would show mismatching fields.
type counter struct {
	n float64
}

func (c *counter) Next() model.Reading {
	c.n++
	return model.Reading{Temperature: c.n, Humidity: c.n, SoundVolume: c.n}
}

type fakePublisher struct {
	mtx  sync.Mutex
	msgs [][]byte
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, _ string, payload []byte) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.msgs = append(p.msgs, payload)
	return p.err
}

func (p *fakePublisher) count() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.msgs)
}

func TestSource_CurrentBeforeRun(t *testing.T) {
	s := New(synth.NewGenerator(1, synth.Reference()))
	if got := s.Current(); got == (model.Reading{}) {
		t.Errorf("current got: zero reading, expected a generated one")
	}
}

func TestSource_ConcurrentReaders(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub := &fakePublisher{err: errors.New("broker down")}
	s := New(&counter{}, WithInterval(time.Millisecond), WithPublisher(pub, "readings"))
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := 0.0
			for j := 0; j < 500; j++ {
				r := s.Current()
				if r.Temperature != r.Humidity || r.Humidity != r.SoundVolume {
					t.Errorf("torn reading: %+v", r)
					return
				}
				if r.Temperature < last {
					t.Errorf("reading went backwards: %v after %v", r.Temperature, last)
					return
				}
				last = r.Temperature
			}
		}()
	}
	wg.Wait()

	deadline := time.After(2 * time.Second)
	for s.Current().Temperature < 3 || pub.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("refresher did not advance: current %+v, published %d", s.Current(), pub.count())
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("run: %v", err)
	}
}

func TestHandler(t *testing.T) {
	s := New(&counter{})
	tests := []struct {
		name     string
		method   string
		expected int
	}{
		{name: "get", method: http.MethodGet, expected: http.StatusOK},
		{name: "post", method: http.MethodPost, expected: http.StatusMethodNotAllowed},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHandler(s).ServeHTTP(rec, httptest.NewRequest(test.method, "/node/data", nil))
			if rec.Code != test.expected {
				t.Fatalf("status got: %d, expected: %d", rec.Code, test.expected)
			}
			if rec.Code != http.StatusOK {
				return
			}
			var got map[string]float64
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for _, k := range []string{model.FieldTemperature, model.FieldHumidity, model.FieldSoundVolume} {
				if got[k] != 1 {
					t.Errorf("%s got: %v, expected: 1", k, got[k])
				}
			}
		})
	}
}
