package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"skylink-gateway/internal/config"
	"skylink-gateway/internal/logging"
	"skylink-gateway/internal/sim"
)

var (
	simConfigPath string
	simSchemaPath string
	simTarget     string
	simTick       time.Duration
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a simulated delivery fleet against a gateway",
	Long:  "simulate spawns the configured fleets and pushes handshake, telemetry, and heartbeat datagrams at a running gateway.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}

		log := logging.New()
		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()

		tickInterval := simTick
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return err
			}
			tickInterval = d
		}

		simulator, err := sim.NewSimulator(cfg, simTarget, tickInterval)
		if err != nil {
			return err
		}
		defer simulator.Close()

		go simulator.Run(ctx)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		cancel()
		log.Info("fleet simulation stopped")
		return nil
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/gateway.yaml", "Path to gateway configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/gateway.cue", "Path to CUE schema file")
	simulateCmd.Flags().StringVar(&simTarget, "target", "127.0.0.1:6001", "Gateway UDP address to send telemetry to")
	simulateCmd.Flags().DurationVar(&simTick, "tick", time.Second, "Telemetry tick interval (e.g. 500ms, 2s)")
}
