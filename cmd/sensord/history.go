package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/go-sod/sensord/internal/reading/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the most recent readings",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().Bool("anomalies", false, "Only anomalous readings")
	cmd.Flags().Int("limit", 10, "Number of rows")
	addServiceFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := newClient(cmd, "service-url")
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	var rows []model.LabeledReading
	if anomalies, _ := cmd.Flags().GetBool("anomalies"); anomalies {
		rows, err = svc.LatestAnomalies(ctx, limit)
	} else {
		rows, err = svc.LatestReadings(ctx, limit)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATESTAMP\tAGE\tTEMPERATURE\tHUMIDITY\tSOUND_VOLUME\tANOMALY")
	now := time.Now()
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f\t%v\n",
			r.Timestamp.Format(time.RFC3339Nano),
			humanize.RelTime(r.Timestamp, now, "ago", "from now"),
			r.Temperature, r.Humidity, r.SoundVolume, r.IsAnomaly)
	}
	return w.Flush()
}
