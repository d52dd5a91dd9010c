package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-sod/sensord/internal/client"
	"github.com/go-sod/sensord/internal/reading/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify one reading",
		Long:  "Classify one reading given by flags, or the node's current reading with --from-node.",
		Args:  cobra.NoArgs,
		RunE:  runPredict,
	}
	cmd.Flags().Float64("temperature", 0, "Temperature")
	cmd.Flags().Float64("humidity", 0, "Humidity")
	cmd.Flags().Float64("sound-volume", 0, "Sound volume")
	cmd.Flags().Bool("from-node", false, "Fetch the reading from the node")
	cmd.MarkFlagsRequiredTogether("temperature", "humidity", "sound-volume")
	cmd.MarkFlagsMutuallyExclusive("from-node", "temperature")
	addServiceFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := newClient(cmd, "service-url")
	if err != nil {
		return err
	}

	var r model.Reading
	if fromNode, _ := cmd.Flags().GetBool("from-node"); fromNode {
		nodeClient, err := newClient(cmd, "node-url")
		if err != nil {
			return err
		}
		if r, err = nodeClient.NodeData(ctx); err != nil {
			return err
		}
	} else {
		if !cmd.Flags().Changed("temperature") {
			return fmt.Errorf("either --from-node or all of --temperature, --humidity and --sound-volume are required")
		}
		r.Temperature, _ = cmd.Flags().GetFloat64("temperature")
		r.Humidity, _ = cmd.Flags().GetFloat64("humidity")
		r.SoundVolume, _ = cmd.Flags().GetFloat64("sound-volume")
	}

	isAnomaly, err := svc.Predict(ctx, r)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		model.Reading
		IsAnomaly bool `json:"is_anomaly"`
	}{r, isAnomaly})
}

func addServiceFlags(cmd *cobra.Command) {
	cmd.Flags().String("service-url", envOr("SENSORD_SERVICE_URL", "http://localhost:8000"), "Classification service base url")
	cmd.Flags().String("node-url", envOr("SENSORD_NODE_URL", "http://localhost:8001"), "Node base url")
	cmd.Flags().Duration("timeout", client.DefaultTimeout, "Request timeout")
}

func newClient(cmd *cobra.Command, urlFlag string) (*client.Client, error) {
	u, _ := cmd.Flags().GetString(urlFlag)
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return client.New(u, client.WithTimeout(timeout))
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
