package setup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sod/sensord/internal/alert"
	"github.com/go-sod/sensord/internal/alert/sink"
	"github.com/go-sod/sensord/internal/database"
	"github.com/go-sod/sensord/internal/predictor"
	"github.com/go-sod/sensord/internal/predictor/knn"
	"github.com/go-sod/sensord/internal/reading"
	"github.com/go-sod/sensord/internal/reading/model"
	"github.com/go-sod/sensord/internal/reading/sqlite"
)

type testConfig struct {
	Database  database.Config
	Store     reading.Config
	SQLite    sqlite.Config
	Predictor predictor.Config
	KNN       knn.Config
	Alert     alert.Config
}

func (c *testConfig) DatabaseConfig() *database.Config { return &c.Database }
func (c *testConfig) StoreConfig() *reading.Config { return &c.Store }
func (c *testConfig) SQLiteConfig() *sqlite.Config { return &c.SQLite }
func (c *testConfig) PredictConfig() *predictor.Config { return &c.Predictor }
func (c *testConfig) KNNConfig() *knn.Config { return &c.KNN }
func (c *testConfig) NotifyConfig() *alert.Config { return &c.Alert }

func TestSetup(t *testing.T) {
	tests := []struct {
		name      string
		storeType string
		predictor string
		targets   string
	}{
		{name: "bolt_sigma", storeType: "BOLT", predictor: "SIGMA"},
		{name: "sqlite_knn", storeType: "SQLITE", predictor: "KNN"},
		{name: "bolt_with_alerts", storeType: "BOLT", predictor: "SIGMA", targets: `[{"name":"hook","type":"WEBHOOK","url":"http://127.0.0.1:1/alerts"}]`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv("SENSORD_DB_FILE", filepath.Join(dir, "sensord.db"))
			t.Setenv("SENSORD_SQLITE_PATH", filepath.Join(dir, "data_log.db"))
			t.Setenv("SENSORD_STORE_TYPE", test.storeType)
			t.Setenv("SENSORD_PREDICTOR_TYPE", test.predictor)
			t.Setenv("SENSORD_KNN_TRAIN_SIZE", "500")
			t.Setenv("SENSORD_ALERT_TARGETS", test.targets)

			ctx := context.Background()
			env, err := Setup(ctx, &testConfig{})
			if err != nil {
				t.Fatalf("setup: %v", err)
			}
			defer env.Close(ctx)

			p, err := env.ProvidePredictor()()
			if err != nil {
				t.Fatalf("provide predictor: %v", err)
			}
			isAnomaly, err := p.Predict(ctx, model.Reading{Temperature: 15, Humidity: 70, SoundVolume: 65})
			if err != nil || isAnomaly {
				t.Errorf("predict got: %v, %v, expected a normal reading", isAnomaly, err)
			}

			row := model.NewLabeledReading(model.Reading{Temperature: 15, Humidity: 70, SoundVolume: 65}, false, time.Now())
			if err := env.Store().Append(ctx, &row); err != nil {
				t.Fatalf("append: %v", err)
			}
			if n, err := env.Store().Count(ctx); err != nil || n != 1 {
				t.Errorf("count got: %d, %v, expected: 1", n, err)
			}

			if (env.ProvideNotifier() != nil) != (test.targets != "") {
				t.Fatalf("notifier configured got: %v, expected: %v", env.ProvideNotifier() != nil, test.targets != "")
			}
			if env.ProvideNotifier() != nil {
				if _, err := env.ProvideNotifier()(); err != nil {
					t.Errorf("provide notifier: %v", err)
				}
			}
		})
	}
}

func TestSetup_UnknownPredictor(t *testing.T) {
	t.Setenv("SENSORD_DB_FILE", filepath.Join(t.TempDir(), "sensord.db"))
	t.Setenv("SENSORD_PREDICTOR_TYPE", "LOF")
	if _, err := Setup(context.Background(), &testConfig{}); err == nil {
		t.Errorf("unknown predictor type must be rejected")
	}
}

func TestProvideNotifierFor_BadTarget(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{FileName: filepath.Join(t.TempDir(), "a.db"), OpenTimeout: time.Second})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close(ctx)
	cfg := &alert.Config{Targets: alert.Targets{{Name: "x", Type: sink.Type("SMTP")}}}
	provideFn, err := ProvideNotifierFor(cfg, db)
	if err != nil {
		t.Fatalf("provide: %v", err)
	}
	if _, err := provideFn(); err == nil {
		t.Errorf("unknown sink type must be rejected")
	}
}
