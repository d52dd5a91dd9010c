// Package sigma classifies readings with a per-channel k-sigma band whose
// parameters come from a TOML artifact:
//
//	sigmas = 3.0
//
//	[temperature]
//	mean = 15.0
//	std = 7.0
//
//	[humidity]
//	mean = 70.0
//	std = 12.0
//
//	[sound_volume]
//	mean = 65.0
//	std = 10.0
package sigma

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/go-sod/sensord/internal/predictor"
	"github.com/go-sod/sensord/internal/reading/model"
	"github.com/go-sod/sensord/internal/synth"
)

var _ predictor.Predictor = (*Sigma)(nil)

type Artifact struct {
	Sigmas      float64       `toml:"sigmas"`
	Temperature synth.Feature `toml:"temperature"`
	Humidity    synth.Feature `toml:"humidity"`
	SoundVolume synth.Feature `toml:"sound_volume"`
}

// DefaultArtifact is the 3 sigma band around the reference distribution.
func DefaultArtifact() Artifact {
	d := synth.Reference()
	return Artifact{
		Sigmas:      synth.DefaultSigmas,
		Temperature: d.Temperature,
		Humidity:    d.Humidity,
		SoundVolume: d.SoundVolume,
	}
}

func (a Artifact) Validate() error {
	if a.Sigmas <= 0 {
		return fmt.Errorf("sigmas must be positive, got %v", a.Sigmas)
	}
	for name, f := range map[string]synth.Feature{
		model.FieldTemperature: a.Temperature,
		model.FieldHumidity:    a.Humidity,
		model.FieldSoundVolume: a.SoundVolume,
	} {
		if f.Std <= 0 {
			return fmt.Errorf("%s: std must be positive, got %v", name, f.Std)
		}
	}
	return nil
}

func (a Artifact) Distribution() synth.Distribution {
	return synth.Distribution{Temperature: a.Temperature, Humidity: a.Humidity, SoundVolume: a.SoundVolume}
}

// Load reads an artifact file. Unknown keys are rejected so that a typo does
// not silently fall back to a zero parameter.
func Load(path string) (Artifact, error) {
	var a Artifact
	md, err := toml.DecodeFile(path, &a)
	if err != nil {
		return Artifact{}, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i := range undecoded {
			keys[i] = undecoded[i].String()
		}
		return Artifact{}, fmt.Errorf("artifact %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return a, nil
}

func New(a Artifact) (*Sigma, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sigma artifact: %w", err)
	}
	return &Sigma{k: a.Sigmas, dist: a.Distribution()}, nil
}

type Sigma struct {
	k    float64
	dist synth.Distribution
}

func (s *Sigma) Predict(_ context.Context, r model.Reading) (bool, error) {
	return s.dist.IsAnomaly(r, s.k), nil
}
