package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/go-sod/sensord/internal/alert"
	"github.com/go-sod/sensord/internal/buildinfo"
	"github.com/go-sod/sensord/internal/classify"
	sensord "github.com/go-sod/sensord/internal/config"
	"github.com/go-sod/sensord/internal/history"
	"github.com/go-sod/sensord/internal/logging"
	"github.com/go-sod/sensord/internal/metrics"
	"github.com/go-sod/sensord/internal/predict"
	"github.com/go-sod/sensord/internal/server"
	"github.com/go-sod/sensord/internal/setup"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the classification service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			banner(cmd)
			return runServe(cmd.Context())
		},
	})
}

func runServe(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("starting %s", buildinfo.Info.Short())

	config := sensord.ServerConfig{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if err := env.Close(ctx); err != nil {
			logger.Errorf("env.Close: %v", err)
		}
	}()

	if err := metrics.Register(); err != nil {
		return fmt.Errorf("metrics.Register: %w", err)
	}
	metricsHandler, err := metrics.Handler()
	if err != nil {
		return fmt.Errorf("metrics.Handler: %w", err)
	}

	p, err := env.ProvidePredictor()()
	if err != nil {
		return fmt.Errorf("predictor provider function error: %w", err)
	}

	var notifier alert.Manager
	opts := []classify.Option{classify.WithMaxLimit(config.Classify.MaxLimit)}
	if provideFn := env.ProvideNotifier(); provideFn != nil {
		if notifier, err = provideFn(); err != nil {
			return fmt.Errorf("notifier provider function error: %w", err)
		}
		opts = append(opts, classify.WithNotifier(notifier))
	}
	svc := classify.New(env.Store(), p, opts...)

	r := mux.NewRouter()
	r.Handle("/predict", predict.NewHandler(&config.Predict, svc))
	r.Handle("/latest_readings", history.NewReadingsHandler(&config.History, svc)).Methods(http.MethodGet)
	r.Handle("/latest_anomalies", history.NewAnomaliesHandler(&config.History, svc)).Methods(http.MethodGet)
	r.Handle("/health", history.NewHealthHandler(&config.History, svc)).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	handler := server.Middleware(r, server.AccessLogWriter(logger), logger)

	// nothing is served until every listener is bound
	ls, err := listen(&config)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if notifier != nil {
		g.Go(func() error { return notifier.Run(gctx) })
	}
	logger.Infof("serving http on %s", ls.http.Addr())
	g.Go(func() error { return ls.http.ServeHTTPHandler(gctx, handler) })
	if ls.grpc != nil {
		logger.Infof("serving grpc health on %s", ls.grpc.Addr())
		g.Go(func() error { return ls.grpc.ServeGRPC(gctx, grpc.NewServer()) })
	}
	if ls.debug != nil {
		logger.Infof("serving debug on %s", ls.debug.Addr())
		g.Go(func() error { return ls.debug.ServeHTTPHandler(gctx, http.DefaultServeMux) })
	}

	return g.Wait()
}

type listeners struct {
	http, grpc, debug *server.Server
}

// listen binds every configured address. On failure the listeners bound so
// far are released.
func listen(config *sensord.ServerConfig) (*listeners, error) {
	ls := &listeners{}
	var err error
	if ls.http, err = server.New(config.SrvAddr, server.WithMaxConns(config.MaxConns)); err != nil {
		return nil, fmt.Errorf("server.New: %w", err)
	}
	if config.GRPCAddr != "" {
		if ls.grpc, err = server.New(config.GRPCAddr); err != nil {
			ls.close()
			return nil, fmt.Errorf("server.New grpc: %w", err)
		}
	}
	if config.DebugAddr != "" {
		if ls.debug, err = server.New(config.DebugAddr); err != nil {
			ls.close()
			return nil, fmt.Errorf("server.New debug: %w", err)
		}
	}
	return ls, nil
}

func (ls *listeners) close() {
	for _, s := range []*server.Server{ls.http, ls.grpc, ls.debug} {
		if s != nil {
			_ = s.Close()
		}
	}
}
