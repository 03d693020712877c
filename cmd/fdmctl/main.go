package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	dataDir    string
	addr       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fdmctl",
		Short:         "flight dynamics simulation with a remote command socket",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")

	rootCmd.AddCommand(
		newServeCmd(),
		newClientCmd(),
		newMonitorCmd(),
		newRunsCmd(),
		newPlotCmd(),
		newExportCmd(),
		newPresetsCmd(),
		newEncryptCmd(),
		newDecryptCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
