// Package synth generates synthetic sensor readings from a reference
// distribution and labels them with the k-sigma rule.
package synth

import (
	"math"
	"sync"

	"github.com/valyala/fastrand"

	"github.com/go-sod/sensord/internal/reading/model"
)

// DefaultSigmas is the distance from the mean, in standard deviations,
// past which a feature is anomalous.
const DefaultSigmas = 3.0

// Feature is the normal distribution of one sensor channel.
type Feature struct {
	Mean float64 `toml:"mean"`
	Std  float64 `toml:"std"`
}

// Outside reports whether v falls outside mean±k·std. The lower bound is
// inclusive, the upper bound exclusive.
func (f Feature) Outside(v, k float64) bool {
	return v <= f.Mean-k*f.Std || v > f.Mean+k*f.Std
}

// Distribution holds one Feature per sensor channel.
type Distribution struct {
	Temperature Feature `toml:"temperature"`
	Humidity    Feature `toml:"humidity"`
	SoundVolume Feature `toml:"sound_volume"`
}

// Reference is the distribution of the simulated node: temperature in °C,
// relative humidity in %, sound volume in dB.
func Reference() Distribution {
	return Distribution{
		Temperature: Feature{Mean: 15, Std: 7},
		Humidity:    Feature{Mean: 70, Std: 12},
		SoundVolume: Feature{Mean: 65, Std: 10},
	}
}

// IsAnomaly labels r as anomalous when any channel is further than k standard
// deviations from its mean.
func (d Distribution) IsAnomaly(r model.Reading, k float64) bool {
	return d.Temperature.Outside(r.Temperature, k) ||
		d.Humidity.Outside(r.Humidity, k) ||
		d.SoundVolume.Outside(r.SoundVolume, k)
}

// Sample is a generated reading with its expected label.
type Sample struct {
	model.Reading
	IsAnomaly bool
}

// Generator draws readings from a Distribution. It is safe for concurrent use.
type Generator struct {
	mtx  sync.Mutex
	rng  fastrand.RNG
	dist Distribution
}

// NewGenerator returns a generator seeded with seed. The same seed yields the
// same sequence; seed 0 picks a random one.
func NewGenerator(seed uint32, dist Distribution) *Generator {
	g := &Generator{dist: dist}
	g.rng.Seed(seed)
	return g
}

func (g *Generator) Distribution() Distribution {
	return g.dist
}

// Next draws one reading, each channel rounded to two decimals.
func (g *Generator) Next() model.Reading {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return model.Reading{
		Temperature: round2(g.normal(g.dist.Temperature)),
		Humidity:    round2(g.normal(g.dist.Humidity)),
		SoundVolume: round2(g.normal(g.dist.SoundVolume)),
	}
}

// Dataset draws n readings labeled with the k-sigma rule.
func (g *Generator) Dataset(n int, k float64) []Sample {
	samples := make([]Sample, n)
	for i := range samples {
		r := g.Next()
		samples[i] = Sample{Reading: r, IsAnomaly: g.dist.IsAnomaly(r, k)}
	}
	return samples
}

// normal uses the Box-Muller transform over two uniform draws in (0, 1).
func (g *Generator) normal(f Feature) float64 {
	u1 := g.uniform()
	u2 := g.uniform()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return f.Mean + f.Std*z
}

func (g *Generator) uniform() float64 {
	return (float64(g.rng.Uint32()) + 0.5) / (1 << 32)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
