// Command preprocess converts an OSM extract or a plain edge list into a
// binary dataset for the batch server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spfw/pkg/config"
	"spfw/pkg/graph"
	osmparser "spfw/pkg/osm"
)

// regions are named bounding boxes for common extracts.
var regions = map[string]osmparser.BBox{
	"singapore": {MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1},
	"kl":        {MinLat: 2.75, MaxLat: 3.5, MinLng: 101.2, MaxLng: 102.0},
}

type options struct {
	input     string
	output    string
	format    string
	bbox      string
	region    string
	largest   bool
	logLevel  string
	logFormat string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "preprocess --input <file> [--output dataset.spfw]",
		Short: "Build a binary dataset from an OSM PBF file or an edge list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := config.NewLogger(config.Log{Level: o.logLevel, Format: o.logFormat}, os.Stderr)
			return run(cmd.Context(), o, logger)
		},
		SilenceUsage: true,
	}
	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "path to an .osm.pbf file or a text edge list")
	f.StringVarP(&o.output, "output", "o", "dataset.spfw", "output dataset path")
	f.StringVar(&o.format, "format", "auto", "input format: auto, osm or edges")
	f.StringVar(&o.bbox, "bbox", "", "OSM bounding box filter: minLat,minLng,maxLat,maxLng")
	f.StringVar(&o.region, "region", "", "named OSM bounding box (singapore, kl)")
	f.BoolVar(&o.largest, "largest-component", true, "keep only the largest weakly connected component")
	f.StringVar(&o.logLevel, "log-level", "info", "log level")
	f.StringVar(&o.logFormat, "log-format", "text", "log format: text or json")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagsMutuallyExclusive("bbox", "region")
	return cmd
}

func run(ctx context.Context, o options, logger *slog.Logger) error {
	start := time.Now()

	format, err := inputFormat(o)
	if err != nil {
		return err
	}

	f, err := os.Open(o.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var ds *graph.Dataset
	switch format {
	case "osm":
		opts := osmparser.ParseOptions{Logger: logger}
		if opts.BBox, err = parseBBox(o); err != nil {
			return err
		}
		res, err := osmparser.Parse(ctx, f, opts)
		if err != nil {
			return fmt.Errorf("parse osm: %w", err)
		}
		logger.Info("parsed osm", "edges", len(res.Edges), "nodes", len(res.NodeLat))
		ds = graph.FromOSM(res)
	default:
		if ds, err = graph.ReadEdgeList(f); err != nil {
			return fmt.Errorf("read edge list: %w", err)
		}
	}
	g := ds.Graph
	logger.Info("built graph", "vertices", g.NumVertices, "edges", g.NumEdges(), "weights", ds.WeightNames())

	if o.largest && g.NumVertices > 0 {
		nodes := graph.LargestComponent(g)
		logger.Info("largest component", "vertices", len(nodes),
			"percent", fmt.Sprintf("%.1f", float64(len(nodes))/float64(g.NumVertices)*100))
		ds = graph.FilterToComponent(ds, nodes)
		logger.Info("filtered graph", "vertices", ds.Graph.NumVertices, "edges", ds.Graph.NumEdges())
	}

	if err := graph.WriteBinary(o.output, ds); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	attrs := []any{"output", o.output, "elapsed", time.Since(start).Round(time.Millisecond)}
	if info, err := os.Stat(o.output); err == nil {
		attrs = append(attrs, "mb", fmt.Sprintf("%.1f", float64(info.Size())/(1024*1024)))
	}
	logger.Info("done", attrs...)
	return nil
}

func inputFormat(o options) (string, error) {
	switch o.format {
	case "osm", "edges":
		return o.format, nil
	case "auto":
		if strings.HasSuffix(o.input, ".pbf") {
			return "osm", nil
		}
		if o.bbox != "" || o.region != "" {
			return "", fmt.Errorf("--bbox and --region need OSM input, got %s", filepath.Base(o.input))
		}
		return "edges", nil
	default:
		return "", fmt.Errorf("unknown format %q", o.format)
	}
}

func parseBBox(o options) (osmparser.BBox, error) {
	if o.region != "" {
		b, ok := regions[o.region]
		if !ok {
			return osmparser.BBox{}, fmt.Errorf("unknown region %q", o.region)
		}
		return b, nil
	}
	if o.bbox == "" {
		return osmparser.BBox{}, nil
	}
	var minLat, minLng, maxLat, maxLng float64
	if _, err := fmt.Sscanf(o.bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
		return osmparser.BBox{}, fmt.Errorf("invalid bbox (expected minLat,minLng,maxLat,maxLng): %w", err)
	}
	if minLat >= maxLat || minLng >= maxLng {
		return osmparser.BBox{}, fmt.Errorf("invalid bbox %q: min must be below max", o.bbox)
	}
	return osmparser.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}, nil
}
