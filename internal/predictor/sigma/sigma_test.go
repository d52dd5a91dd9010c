package sigma

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sod/sensord/internal/reading/model"
	"github.com/go-sod/sensord/internal/synth"
)

func TestSigma_Predict(t *testing.T) {
	t.Parallel()
	s, err := New(DefaultArtifact())
	if err != nil {
		t.Fatalf("new sigma: %v", err)
	}
	tests := []struct {
		name     string
		reading  model.Reading
		expected bool
	}{
		{name: "means", reading: model.Reading{SoundVolume: 65, Humidity: 70, Temperature: 15}, expected: false},
		{name: "hot", reading: model.Reading{Temperature: 100, Humidity: 70, SoundVolume: 65}, expected: true},
		{name: "quiet", reading: model.Reading{Temperature: 15, Humidity: 70, SoundVolume: 30}, expected: true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got, err := s.Predict(context.Background(), test.reading)
			if err != nil {
				t.Fatalf("predict: %v", err)
			}
			if got != test.expected {
				t.Errorf("predict %+v got: %v, expected: %v", test.reading, got, test.expected)
			}
		})
	}
}

func TestSigma_AgreesWithLabelingRuleOnHoldout(t *testing.T) {
	t.Parallel()
	s, err := New(DefaultArtifact())
	if err != nil {
		t.Fatalf("new sigma: %v", err)
	}
	for _, sample := range synth.NewGenerator(1234, synth.Reference()).Dataset(2000, synth.DefaultSigmas) {
		got, _ := s.Predict(context.Background(), sample.Reading)
		if got != sample.IsAnomaly {
			t.Fatalf("predict %+v got: %v, expected: %v", sample.Reading, got, sample.IsAnomaly)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		wantErr bool
		sigmas  float64
	}{
		{
			name: "positive",
			content: `sigmas = 2.5
[temperature]
mean = 10.0
std = 2.0
[humidity]
mean = 50.0
std = 5.0
[sound_volume]
mean = 40.0
std = 4.0
`,
			sigmas: 2.5,
		},
		{name: "unknown_key", content: "sigmas = 3.0\npressure = 1.0\n", wantErr: true},
		{name: "malformed", content: "sigmas = = 3", wantErr: true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(dir, test.name+".toml")
			if err := os.WriteFile(path, []byte(test.content), 0o600); err != nil {
				t.Fatalf("write artifact: %v", err)
			}
			a, err := Load(path)
			if (err != nil) != test.wantErr {
				t.Fatalf("load got err: %v, expected error: %v", err, test.wantErr)
			}
			if err == nil && a.Sigmas != test.sigmas {
				t.Errorf("sigmas got: %v, expected: %v", a.Sigmas, test.sigmas)
			}
		})
	}
}

func TestNew_InvalidArtifact(t *testing.T) {
	t.Parallel()
	a := DefaultArtifact()
	a.Humidity.Std = 0
	if _, err := New(a); err == nil {
		t.Errorf("zero std must be rejected")
	}
	a = DefaultArtifact()
	a.Sigmas = -1
	if _, err := New(a); err == nil {
		t.Errorf("negative sigmas must be rejected")
	}
}
