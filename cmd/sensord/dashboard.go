package main

import (
	"fmt"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/go-sod/sensord/internal/client"
	"github.com/go-sod/sensord/internal/dashboard"
)

func init() {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Render the live dashboard in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runDashboard,
	}
	cmd.Flags().String("field", "", "Field charted in the sparkline: temperature, humidity or sound_volume")
	cmd.Flags().Int("anomalies", -1, "Number of anomalies listed")
	rootCmd.AddCommand(cmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := dashboard.Load(ctx, envconfig.OsLookuper())
	if err != nil {
		return err
	}
	if field, _ := cmd.Flags().GetString("field"); field != "" {
		cfg.Field = field
	}
	if n, _ := cmd.Flags().GetInt("anomalies"); n >= 0 {
		cfg.AnomalyLimit = n
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	nodeClient, err := client.New(cfg.NodeURL, client.WithTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("node client: %w", err)
	}
	svcClient, err := client.New(cfg.ServiceURL, client.WithTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("service client: %w", err)
	}

	loop := dashboard.New(
		nodeClient,
		svcClient,
		dashboard.NewTerminal(cmd.OutOrStdout(), cfg.Field),
		dashboard.WithInterval(cfg.Interval),
		dashboard.WithMaxBackoff(cfg.MaxBackoff),
		dashboard.WithAnomalyLimit(cfg.AnomalyLimit),
	)
	return loop.Run(ctx)
}
