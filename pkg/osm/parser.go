package osm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"spfw/pkg/geo"
)

// RawEdge is a directed road segment between two consecutive way nodes.
type RawEdge struct {
	FromNodeID osm.NodeID
	ToNodeID   osm.NodeID
	DistanceMM uint32 // great-circle length in millimeters
	DurationMS uint32 // travel time at the way's speed in milliseconds
}

// ParseResult holds the output of parsing an OSM PBF file.
type ParseResult struct {
	Edges   []RawEdge
	NodeLat map[osm.NodeID]float64
	NodeLon map[osm.NodeID]float64
}

// defaultSpeedKPH is the assumed speed per drivable highway class when the
// way carries no usable maxspeed tag. Membership marks the class as drivable.
var defaultSpeedKPH = map[string]float64{
	"motorway":       100,
	"motorway_link":  60,
	"trunk":          80,
	"trunk_link":     50,
	"primary":        60,
	"primary_link":   40,
	"secondary":      50,
	"secondary_link": 40,
	"tertiary":       40,
	"tertiary_link":  30,
	"unclassified":   30,
	"residential":    30,
	"living_street":  10,
	"service":        15,
}

// isCarAccessible returns true if the way is drivable by car.
func isCarAccessible(tags osm.Tags) bool {
	if _, ok := defaultSpeedKPH[tags.Find("highway")]; !ok {
		return false
	}

	// Skip area highways (pedestrian plazas).
	if tags.Find("area") == "yes" {
		return false
	}

	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" {
		return false
	}

	return true
}

// directionFlags returns (forward, backward) based on highway type and oneway tags.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	forward = true
	backward = true

	hw := tags.Find("highway")

	// Implied oneway for motorways and roundabouts.
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward = true
		backward = false
	case "-1", "reverse":
		forward = false
		backward = true
	case "no":
		forward = true
		backward = true
	case "reversible":
		// Time-dependent, skip entirely.
		forward = false
		backward = false
	}

	return forward, backward
}

// speedKPH returns the travel speed for a way: its maxspeed tag when it
// parses, otherwise the default for its highway class.
func speedKPH(tags osm.Tags) float64 {
	if v, ok := parseMaxspeed(tags.Find("maxspeed")); ok {
		return v
	}
	return defaultSpeedKPH[tags.Find("highway")]
}

// parseMaxspeed understands plain km/h values and "<n> mph".
// Symbolic values such as "signals" or "none" are rejected.
func parseMaxspeed(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	factor := 1.0
	if num, ok := strings.CutSuffix(s, "mph"); ok {
		s = strings.TrimSpace(num)
		factor = 1.609344
	} else if num, ok := strings.CutSuffix(s, "km/h"); ok {
		s = strings.TrimSpace(num)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v * factor, true
}

// segmentWeights converts a segment length in meters and a speed in km/h
// into millimeter and millisecond weights, each at least 1.
func segmentWeights(meters, kph float64) (distanceMM, durationMS uint32) {
	distanceMM = uint32(max(1, math.Round(meters*1000)))
	durationMS = uint32(max(1, math.Round(meters/(kph/3.6)*1000)))
	return distanceMM, durationMS
}

// wayInfo holds parsed way data collected during Pass 1.
type wayInfo struct {
	NodeIDs  []osm.NodeID
	Forward  bool
	Backward bool
	SpeedKPH float64
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only edges with both endpoints inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	BBox   BBox         // if non-zero, filter edges to this bounding box
	Logger *slog.Logger // defaults to slog.Default()
}

// Parse reads an OSM PBF file and returns directed edges for car routing.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) (*ParseResult, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	useBBox := !opt.BBox.IsZero()

	// Pass 1: Scan ways to collect referenced node IDs and way info.
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if !isCarAccessible(w.Tags) || len(w.Nodes) < 2 {
			continue
		}
		fwd, bwd := directionFlags(w.Tags)
		if !fwd && !bwd {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}
		ways = append(ways, wayInfo{
			NodeIDs:  nodeIDs,
			Forward:  fwd,
			Backward: bwd,
			SpeedKPH: speedKPH(w.Tags),
		})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	logger.Info("osm pass 1 complete", "ways", len(ways), "referenced_nodes", len(referencedNodes))

	// Pass 2: Scan nodes to collect coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referencedNodes))
	nodeLon := make(map[osm.NodeID]float64, len(referencedNodes))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	logger.Info("osm pass 2 complete", "nodes", len(nodeLat))

	edges, skipped, filtered := buildEdges(ways, nodeLat, nodeLon, opt.BBox, useBBox)
	if skipped > 0 {
		logger.Warn("skipped edges with missing node coordinates", "count", skipped)
	}
	if filtered > 0 {
		logger.Info("filtered edges outside bounding box", "count", filtered)
	}
	logger.Info("built directed edges", "count", len(edges))

	return &ParseResult{
		Edges:   edges,
		NodeLat: nodeLat,
		NodeLon: nodeLon,
	}, nil
}

// buildEdges splits ways into directed segments. It returns the edges plus the
// number of segments dropped for missing coordinates and for the bbox.
func buildEdges(ways []wayInfo, nodeLat, nodeLon map[osm.NodeID]float64, bbox BBox, useBBox bool) (edges []RawEdge, skipped, filtered int) {
	for _, w := range ways {
		for i := 0; i < len(w.NodeIDs)-1; i++ {
			fromID := w.NodeIDs[i]
			toID := w.NodeIDs[i+1]

			fromLat, fromOk := nodeLat[fromID]
			toLat, toOk := nodeLat[toID]
			if !fromOk || !toOk {
				skipped++
				continue
			}
			fromLon := nodeLon[fromID]
			toLon := nodeLon[toID]

			if useBBox && (!bbox.Contains(fromLat, fromLon) || !bbox.Contains(toLat, toLon)) {
				filtered++
				continue
			}

			dist, dur := segmentWeights(geo.Haversine(fromLat, fromLon, toLat, toLon), w.SpeedKPH)
			if w.Forward {
				edges = append(edges, RawEdge{FromNodeID: fromID, ToNodeID: toID, DistanceMM: dist, DurationMS: dur})
			}
			if w.Backward {
				edges = append(edges, RawEdge{FromNodeID: toID, ToNodeID: fromID, DistanceMM: dist, DurationMS: dur})
			}
		}
	}
	return edges, skipped, filtered
}
