// Package metrics defines the OpenCensus measures and views of sensord and
// exposes them in the Prometheus text format.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const Namespace = "sensord"

var (
	KeyAnomaly = tag.MustNewKey("is_anomaly")
	KeySink    = tag.MustNewKey("sink")
)

var (
	MPredictions       = stats.Int64("predictions", "Number of classified readings", stats.UnitDimensionless)
	MPredictLatency    = stats.Float64("predict_latency", "Time to classify and persist a reading", stats.UnitMilliseconds)
	MStoreAppendErrors = stats.Int64("store_append_errors", "Number of failed appends to the reading log", stats.UnitDimensionless)
	MReadingsGenerated = stats.Int64("node_readings_generated", "Number of synthetic readings produced by the node", stats.UnitDimensionless)
	MAlertsSent        = stats.Int64("alerts_sent", "Number of alerts delivered to a sink", stats.UnitDimensionless)
)

var Views = []*view.View{
	{
		Name:        "predictions_total",
		Measure:     MPredictions,
		Description: MPredictions.Description(),
		TagKeys:     []tag.Key{KeyAnomaly},
		Aggregation: view.Count(),
	},
	{
		Name:        "predict_latency_ms",
		Measure:     MPredictLatency,
		Description: MPredictLatency.Description(),
		Aggregation: view.Distribution(0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000),
	},
	{
		Name:        "store_append_errors_total",
		Measure:     MStoreAppendErrors,
		Description: MStoreAppendErrors.Description(),
		Aggregation: view.Count(),
	},
	{
		Name:        "node_readings_generated_total",
		Measure:     MReadingsGenerated,
		Description: MReadingsGenerated.Description(),
		Aggregation: view.Count(),
	},
	{
		Name:        "alerts_sent_total",
		Measure:     MAlertsSent,
		Description: MAlertsSent.Description(),
		TagKeys:     []tag.Key{KeySink},
		Aggregation: view.Sum(),
	},
}

// Register registers Views with the default OpenCensus worker. Registering
// the same views again is a no-op.
func Register() error {
	if err := view.Register(Views...); err != nil {
		return fmt.Errorf("unable register views: %w", err)
	}
	return nil
}

// Handler returns the /metrics handler backed by its own Prometheus registry.
func Handler() (http.Handler, error) {
	exporter, err := prometheus.NewExporter(prometheus.Options{
		Namespace: Namespace,
		Registry:  prom.NewRegistry(),
	})
	if err != nil {
		return nil, fmt.Errorf("unable create prometheus exporter: %w", err)
	}
	return exporter, nil
}

func RecordPrediction(ctx context.Context, isAnomaly bool, took time.Duration) {
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyAnomaly, strconv.FormatBool(isAnomaly))},
		MPredictions.M(1),
	)
	stats.Record(ctx, MPredictLatency.M(float64(took)/float64(time.Millisecond)))
}

func RecordAppendError(ctx context.Context) {
	stats.Record(ctx, MStoreAppendErrors.M(1))
}

func RecordGenerated(ctx context.Context) {
	stats.Record(ctx, MReadingsGenerated.M(1))
}

func RecordAlertsSent(ctx context.Context, sink string, n int) {
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeySink, sink)},
		MAlertsSent.M(int64(n)),
	)
}
