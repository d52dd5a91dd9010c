package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-sod/sensord/internal/buildinfo"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Info.Print())
			return err
		},
	})
}
