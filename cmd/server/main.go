// Command server serves batched shortest-path queries over HTTP.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"spfw/pkg/api"
	"spfw/pkg/config"
	"spfw/pkg/graph"
	"spfw/pkg/snap"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "server [--config server.yaml]",
		Short:        "Serve batch shortest-path queries",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	d := config.Default()
	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	f.String("dataset", d.Dataset, "path to a preprocessed dataset")
	f.String("addr", d.Server.Addr, "listen address")
	f.Int("max-concurrent", d.Server.MaxConcurrent, "maximum concurrent requests")
	f.Int("max-pairs", d.Batch.MaxPairs, "maximum pairs per batch")
	f.Float64("snap-distance", d.Snap.MaxDistance, "maximum snapping distance in meters")
	f.String("log-level", d.Log.Level, "log level")
	f.String("log-format", d.Log.Format, "log format: text or json")
	return cmd
}

func run(cfg config.Config) error {
	logger := config.NewLogger(cfg.Log, os.Stderr)
	start := time.Now()

	logger.Info("loading dataset", "path", cfg.Dataset)
	ds, err := graph.ReadBinary(cfg.Dataset)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	logger.Info("dataset loaded", "vertices", ds.Graph.NumVertices, "edges", ds.Graph.NumEdges(),
		"weights", ds.WeightNames())

	var snapper *snap.Snapper
	if ds.Graph.HasCoordinates() {
		if snapper, err = snap.NewSnapper(ds.Graph, cfg.Snap.MaxDistance); err != nil {
			return fmt.Errorf("build spatial index: %w", err)
		}
		logger.Info("spatial index built", "points", snapper.Len())
	}
	logger.Info("ready", "elapsed", time.Since(start).Round(time.Millisecond))

	runner := &api.DatasetRunner{
		Dataset:  ds,
		Snapper:  snapper,
		MaxPairs: cfg.Batch.MaxPairs,
		Logger:   logger,
	}
	handlers := api.NewHandlers(runner, api.NewStats(ds), logger, cfg.Server.MaxBodyBytes)
	srv := api.NewServer(api.ServerConfig{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxConcurrent:  cfg.Server.MaxConcurrent,
		CORSOrigin:     cfg.Server.CORSOrigin,
	}, handlers, logger)

	if err := api.ListenAndServe(srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		return err
	}
	return nil
}
