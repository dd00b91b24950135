package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"skylink-gateway/internal/monitor"
)

var monitorBaseURL string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live terminal dashboard for a running gateway",
	Long:  "monitor connects to the gateway's telemetry stream and renders the fleet in a full-screen terminal UI.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("monitor needs an interactive terminal")
		}
		return monitor.New(monitorBaseURL).Run(context.Background())
	},
}

func init() {
	monitorCmd.Flags().StringVar(&monitorBaseURL, "url", "http://127.0.0.1:8080", "Gateway HTTP base URL")
}
