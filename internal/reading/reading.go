// Package reading defines the append-only log of labeled readings.
package reading

import (
	"context"
	"time"

	"github.com/go-sod/sensord/internal/reading/model"
)

type StoreType string

const (
	StoreTypeBolt   StoreType = "BOLT"
	StoreTypeSQLite StoreType = "SQLITE"
)

type Config struct {
	Type StoreType `envconfig:"SENSORD_STORE_TYPE" default:"BOLT"`
}

// Store is the append-only log of labeled readings.
//
// Append serializes writers and assigns the row's ID and Seq; on success the
// row is visible to every read issued afterwards. Latest returns up to limit
// rows, most recent first, and never mutates the log.
type Store interface {
	Append(ctx context.Context, r *model.LabeledReading) error
	Latest(ctx context.Context, limit int, anomaliesOnly bool) ([]model.LabeledReading, error)
	Count(ctx context.Context) (int, error)
}

// NextTimestamp returns the timestamp for a row written at now after a row
// written at last. Timestamps in the log are strictly increasing, so a clock
// that did not advance (or went backwards) is bumped past last.
func NextTimestamp(last, now time.Time) time.Time {
	now = now.UTC()
	if last.IsZero() || now.After(last) {
		return now
	}
	return last.Add(time.Nanosecond)
}
