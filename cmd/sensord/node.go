package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	sensord "github.com/go-sod/sensord/internal/config"
	"github.com/go-sod/sensord/internal/logging"
	"github.com/go-sod/sensord/internal/metrics"
	"github.com/go-sod/sensord/internal/mqttutil"
	"github.com/go-sod/sensord/internal/node"
	"github.com/go-sod/sensord/internal/server"
	"github.com/go-sod/sensord/internal/synth"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "node",
		Short: "Run the simulated sensor node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			banner(cmd)
			return runNode(cmd.Context())
		},
	})
}

func runNode(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	config := sensord.NodeConfig{}
	if err := envconfig.Process("", &config); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := metrics.Register(); err != nil {
		return fmt.Errorf("metrics.Register: %w", err)
	}
	metricsHandler, err := metrics.Handler()
	if err != nil {
		return fmt.Errorf("metrics.Handler: %w", err)
	}

	opts := []node.Option{node.WithInterval(config.Node.Interval)}
	if config.Node.MQTTBroker != "" {
		pub, err := mqttutil.Connect(config.Node.MQTTBroker, "sensord-node", 0)
		if err != nil {
			return fmt.Errorf("mqttutil.Connect: %w", err)
		}
		defer pub.Close()
		logger.Infof("publishing readings to %s on %s", config.Node.MQTTBroker, config.Node.MQTTTopic)
		opts = append(opts, node.WithPublisher(pub, config.Node.MQTTTopic))
	}
	src := node.New(synth.NewGenerator(config.Node.Seed, synth.Reference()), opts...)

	r := mux.NewRouter()
	r.Handle("/node/data", node.NewHandler(src))
	r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	srv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	logger.Infof("node serving on %s", srv.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return src.Run(gctx) })
	g.Go(func() error {
		return srv.ServeHTTPHandler(gctx, server.Middleware(r, server.AccessLogWriter(logger), logger))
	})
	return g.Wait()
}
