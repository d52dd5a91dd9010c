package model

import (
	"fmt"
	"math"
	"time"

	"github.com/oklog/ulid/v2"
)

// Feature names as they appear on the wire and in storage.
const (
	FieldTemperature = "temperature"
	FieldHumidity    = "humidity"
	FieldSoundVolume = "sound_volume"
)

// Reading is one instantaneous sensor triple.
type Reading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	SoundVolume float64 `json:"sound_volume"`
}

// Features returns the reading as a vector in a fixed
// temperature, humidity, sound volume order.
func (r Reading) Features() []float64 {
	return []float64{r.Temperature, r.Humidity, r.SoundVolume}
}

// Field returns the value of the named feature.
func (r Reading) Field(name string) (float64, error) {
	switch name {
	case FieldTemperature:
		return r.Temperature, nil
	case FieldHumidity:
		return r.Humidity, nil
	case FieldSoundVolume:
		return r.SoundVolume, nil
	default:
		return 0, fmt.Errorf("unknown field %q", name)
	}
}

// Validate reports the first feature that is not a finite number.
func (r Reading) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{FieldTemperature, r.Temperature},
		{FieldHumidity, r.Humidity},
		{FieldSoundVolume, r.SoundVolume},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("field %s must be a finite number, got %v", f.name, f.value)
		}
	}
	return nil
}

// NewLabeledReading labels r at the given time. ID and Seq are assigned by the
// store on append.
func NewLabeledReading(r Reading, isAnomaly bool, at time.Time) LabeledReading {
	return LabeledReading{
		Reading:   r,
		IsAnomaly: isAnomaly,
		Timestamp: at.UTC(),
	}
}

// LabeledReading is a classified reading as persisted in the log.
// It is never modified after it has been appended.
type LabeledReading struct {
	ID  ulid.ULID `json:"id"`
	Seq uint64    `json:"seq"`
	Reading
	IsAnomaly bool      `json:"is_anomaly"`
	Timestamp time.Time `json:"timestamp"`
}
