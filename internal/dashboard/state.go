package dashboard

import (
	"time"

	"github.com/go-sod/sensord/internal/reading/model"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusNormal
	StatusAnomaly
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusAnomaly:
		return "anomaly"
	default:
		return "unknown"
	}
}

func statusOf(isAnomaly bool) Status {
	if isAnomaly {
		return StatusAnomaly
	}
	return StatusNormal
}

// State is what the display shows after a cycle. Each part keeps its previous
// value when the step that refreshes it fails.
type State struct {
	Cycle     uint64
	Status    Status
	Current   model.Reading
	Readings  []model.LabeledReading
	Anomalies []model.LabeledReading
	// Errors of the last cycle, by step.
	Errors    map[Step]error
	UpdatedAt time.Time
}

// Transient reports whether the last cycle had any failing step.
func (s State) Transient() bool {
	return len(s.Errors) > 0
}

func (s State) clone() State {
	c := s
	c.Readings = append([]model.LabeledReading(nil), s.Readings...)
	c.Anomalies = append([]model.LabeledReading(nil), s.Anomalies...)
	c.Errors = make(map[Step]error, len(s.Errors))
	for k, v := range s.Errors {
		c.Errors[k] = v
	}
	return c
}

type Step string

const (
	StepNode      Step = "node"
	StepPredict   Step = "predict"
	StepReadings  Step = "readings"
	StepAnomalies Step = "anomalies"
	StepRender    Step = "render"
)
