package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	readingModel "github.com/go-sod/sensord/internal/reading/model"
)

// NewAlert batches anomalous rows for delivery to the named sinks.
func NewAlert(rows []readingModel.LabeledReading, sinks []string) Alert {
	return Alert{
		ID:        uuid.New(),
		Readings:  rows,
		CreatedAt: time.Now().UTC(),
		Remaining: sinks,
	}
}

type Alert struct {
	ID        uuid.UUID                     `json:"id"`
	Readings  []readingModel.LabeledReading `json:"readings"`
	CreatedAt time.Time                     `json:"createdAt"`
	// Sinks that have not acknowledged the alert yet.
	Remaining []string `json:"remaining,omitempty"`
}

// Payload is the body delivered to sinks. It omits the delivery state.
func (a Alert) Payload() ([]byte, error) {
	a.Remaining = nil
	return json.Marshal(a)
}

// Delivered removes sink from the remaining set.
func (a *Alert) Delivered(sink string) {
	remaining := a.Remaining[:0]
	for _, s := range a.Remaining {
		if s != sink {
			remaining = append(remaining, s)
		}
	}
	a.Remaining = remaining
}

func (a Alert) Done() bool {
	return len(a.Remaining) == 0
}
