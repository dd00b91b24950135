package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"skylink-gateway/internal/api"
	"skylink-gateway/internal/config"
	"skylink-gateway/internal/gateway"
	"skylink-gateway/internal/logging"
	"skylink-gateway/internal/mission"
	"skylink-gateway/internal/store"
)

var (
	serveConfigPath string
	serveSchemaPath string
	serveLogFile    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the telemetry and command gateway",
	Long:  "serve binds the UDP ingestion socket and the HTTP API and runs until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(serveConfigPath, serveSchemaPath)
		if err != nil {
			return err
		}
		if v := os.Getenv("UDP_LISTEN"); v != "" {
			cfg.UDPListen = v
		}
		if v := os.Getenv("HTTP_LISTEN"); v != "" {
			cfg.HTTPListen = v
		}

		log := logging.New()
		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()

		sink, cleanup, err := newSink(serveLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		drones := store.NewDrones(sink)
		missions := mission.NewStore(drones, log)
		registry := gateway.NewRegistry()
		cache := gateway.NewCache()
		bus := gateway.NewBus()

		gw := gateway.NewGateway(gateway.Config{
			Listen:       cfg.UDPListen,
			ReapInterval: cfg.ReapInterval(),
			StaleAfter:   cfg.StaleAfter(),
		}, registry, cache, bus, drones, log)

		srv := api.NewServer(missions, registry, cache, bus, gw, drones, log)
		srv.SetStreamBuffer(cfg.SubscriberBuffer)

		errCh := make(chan error, 2)
		go func() { errCh <- gw.Run(ctx) }()
		go func() {
			log.Info("http api listening", "addr", cfg.HTTPListen)
			if err := srv.Start(cfg.HTTPListen); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigs:
		case err := <-errCh:
			return err
		}

		cancel()
		log.Info("gateway stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config/gateway.yaml", "Path to gateway configuration YAML")
	serveCmd.Flags().StringVar(&serveSchemaPath, "schema", "schemas/gateway.cue", "Path to CUE schema file")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Path to export tracking/activity/earnings logs (JSONL)")
}
