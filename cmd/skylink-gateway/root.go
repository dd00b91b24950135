package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skylink-gateway",
	Short: "Drone delivery telemetry and command gateway",
	Long:  "skylink-gateway bridges a delivery drone fleet speaking UDP telemetry to the dispatch platform's HTTP API, with mission tracking and command dispatch.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(monitorCmd)
}
