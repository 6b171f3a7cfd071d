// Command query runs one batch request document against a dataset and
// prints the result as YAML.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"spfw/pkg/batch"
	"spfw/pkg/config"
	"spfw/pkg/graph"
	"spfw/pkg/request"
	"spfw/pkg/snap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var configPath, output string
	cmd := &cobra.Command{
		Use:          "query [request.yaml | -]",
		Short:        "Run a batch request document and print the result",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			in := "-"
			if len(args) == 1 {
				in = args[0]
			}
			return run(cmd.Context(), cfg, in, output, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	d := config.Default()
	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	f.StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	f.String("dataset", d.Dataset, "path to a preprocessed dataset")
	f.Int("max-pairs", d.Batch.MaxPairs, "maximum pairs per batch")
	f.Float64("snap-distance", d.Snap.MaxDistance, "maximum snapping distance in meters")
	f.String("log-level", d.Log.Level, "log level")
	f.String("log-format", d.Log.Format, "log format: text or json")
	return cmd
}

func run(ctx context.Context, cfg config.Config, in, out string, stdin io.Reader, stdout io.Writer) error {
	logger := config.NewLogger(cfg.Log, os.Stderr)

	r := stdin
	if in != "-" {
		f, err := os.Open(in)
		if err != nil {
			return fmt.Errorf("open request: %w", err)
		}
		defer f.Close()
		r = f
	}
	doc, err := request.Decode(r)
	if err != nil {
		return err
	}
	doc.EnsureID()

	ds, err := graph.ReadBinary(cfg.Dataset)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	var snapper *snap.Snapper
	if ds.Graph.HasCoordinates() && (len(doc.SourcePoints) > 0 || len(doc.DestinationPoints) > 0) {
		if snapper, err = snap.NewSnapper(ds.Graph, cfg.Snap.MaxDistance); err != nil {
			return fmt.Errorf("build spatial index: %w", err)
		}
	}

	resp, err := request.Execute(ctx, doc, ds, snapper,
		batch.WithMaxPairs(cfg.Batch.MaxPairs),
		batch.WithLogger(logger.With("request_id", doc.ID)))
	if err != nil {
		return err
	}

	w := stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := resp.WriteYAML(w); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	logger.Info("query done", "request_id", doc.ID, "matched", resp.Stats.Matched,
		"traversals", resp.Stats.Traversals)
	return nil
}
