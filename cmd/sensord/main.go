package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-sod/sensord/internal/buildinfo"
	"github.com/go-sod/sensord/internal/logging"
	"github.com/go-sod/sensord/internal/shutdown"
)

var rootCmd = &cobra.Command{
	Use:           "sensord",
	Short:         "Sensor anomaly pipeline",
	Long:          "sensord simulates a sensor node, classifies its readings and renders a live dashboard.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, done := shutdown.New()
	defer done()

	logger := logging.NewLoggerFromEnv()
	ctx = logging.WithLogger(ctx, logger)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Errorf("%s: %v", buildinfo.Info.Name(), err)
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		done()
		os.Exit(1)
	}
}

func banner(cmd *cobra.Command) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		cmd.ErrOrStderr(),
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)
}
