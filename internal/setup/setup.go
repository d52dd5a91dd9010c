// Package setup builds the server environment from configuration.
package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/go-sod/sensord/internal/alert"
	alertDb "github.com/go-sod/sensord/internal/alert/database"
	"github.com/go-sod/sensord/internal/alert/sink"
	"github.com/go-sod/sensord/internal/database"
	"github.com/go-sod/sensord/internal/geom"
	"github.com/go-sod/sensord/internal/logging"
	"github.com/go-sod/sensord/internal/predictor"
	"github.com/go-sod/sensord/internal/predictor/knn"
	"github.com/go-sod/sensord/internal/predictor/sigma"
	"github.com/go-sod/sensord/internal/reading"
	readingDb "github.com/go-sod/sensord/internal/reading/database"
	"github.com/go-sod/sensord/internal/reading/sqlite"
	"github.com/go-sod/sensord/internal/srvenv"
	"github.com/go-sod/sensord/internal/synth"
)

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type StoreConfigProvider interface {
	StoreConfig() *reading.Config
	SQLiteConfig() *sqlite.Config
}

type PredictorConfigProvider interface {
	PredictConfig() *predictor.Config
	KNNConfig() *knn.Config
}

type NotifierConfigProvider interface {
	NotifyConfig() *alert.Config
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var db *database.DB
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}
	// resources opened so far are released if a later step fails
	env := srvenv.New(serverEnvOpts...)
	fail := func(err error) (*srvenv.SrvEnv, error) {
		if cerr := env.Close(ctx); cerr != nil {
			logger.Errorf("setup cleanup: %v", cerr)
		}
		return nil, err
	}

	if storeConfigProvider, ok := config.(StoreConfigProvider); ok {
		logger.Info("Configuring reading store")
		store, err := ProvideStoreFor(ctx, storeConfigProvider, db)
		if err != nil {
			return fail(fmt.Errorf("unable create reading store: %w", err))
		}
		env = srvenv.WithStore(store)(env)
	}

	if predictConfigProvider, ok := config.(PredictorConfigProvider); ok {
		logger.Info("Configuring predictor")
		provideFn, err := ProvidePredictorFor(predictConfigProvider.PredictConfig(), predictConfigProvider.KNNConfig())
		if err != nil {
			return fail(fmt.Errorf("unable create predictor provide function: %w", err))
		}
		env = srvenv.WithPredictor(provideFn)(env)
	}

	if notifyConfigProvider, ok := config.(NotifierConfigProvider); ok {
		cfg := notifyConfigProvider.NotifyConfig()
		if cfg.AllowAlerts && len(cfg.Targets) > 0 {
			logger.Info("Configuring alerts")
			if db == nil {
				return fail(fmt.Errorf("alerts require the bolt database for the pending queue"))
			}
			provideFn, err := ProvideNotifierFor(cfg, db)
			if err != nil {
				return fail(fmt.Errorf("unable create notifier provide function: %w", err))
			}
			env = srvenv.WithNotifier(provideFn)(env)
		}
	}
	return env, nil
}

func ProvideStoreFor(ctx context.Context, provider StoreConfigProvider, db *database.DB) (reading.Store, error) {
	switch t := provider.StoreConfig().Type; t {
	case reading.StoreTypeBolt:
		if db == nil {
			return nil, fmt.Errorf("bolt store requires a database config")
		}
		return readingDb.New(db)
	case reading.StoreTypeSQLite:
		return sqlite.Open(ctx, provider.SQLiteConfig())
	default:
		return nil, fmt.Errorf("unknown store type: %s", t)
	}
}

func ProvideNotifierFor(cfg *alert.Config, db *database.DB) (alert.ProvideFn, error) {
	pending, err := alertDb.New(db)
	if err != nil {
		return nil, err
	}
	return func() (alert.Manager, error) {
		sinks := make([]sink.Sink, 0, len(cfg.Targets))
		for _, target := range cfg.Targets {
			s, err := sink.New(target, cfg.RequestTimeout)
			if err != nil {
				for _, created := range sinks {
					_ = created.Close()
				}
				return nil, fmt.Errorf("unable create sink %s: %w", target.Name, err)
			}
			sinks = append(sinks, s)
		}
		return alert.New(
			pending,
			sinks,
			alert.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			alert.WithInterval(cfg.Interval),
			alert.WithRequestTimeout(cfg.RequestTimeout),
		)
	}, nil
}

func ProvidePredictorFor(cfg *predictor.Config, knnCfg *knn.Config) (predictor.ProvideFn, error) {
	switch cfg.PredictorType() {
	case predictor.AlgTypeSigma:
		return func() (predictor.Predictor, error) {
			artifact := sigma.DefaultArtifact()
			if cfg.Artifact != "" {
				a, err := sigma.Load(cfg.Artifact)
				if err != nil {
					return nil, fmt.Errorf("unable load sigma artifact: %w", err)
				}
				artifact = a
			}
			return sigma.New(artifact)
		}, nil
	case predictor.AlgTypeKNN:
		distFunc, err := geom.DistanceFuncFor(knnCfg.MetricFuncType)
		if err != nil {
			return nil, fmt.Errorf("unable provide distance function: %w", err)
		}
		return func() (predictor.Predictor, error) {
			start := time.Now()
			samples := synth.NewGenerator(knnCfg.Seed, synth.Reference()).Dataset(knnCfg.TrainSize, synth.DefaultSigmas)
			l, err := knn.New(samples, knn.WithK(knnCfg.K), knn.WithDistance(distFunc))
			if err != nil {
				return nil, fmt.Errorf("unable create knn instance: %w", err)
			}
			logging.DefaultLogger().Debugf("knn trained on %d samples in %s", l.Len(), time.Since(start))
			return l, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown predictor type: %s", cfg.PredictorType())
	}
}
