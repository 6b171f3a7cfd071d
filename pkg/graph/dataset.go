package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Names of the weight sets produced by the loaders.
const (
	WeightDistance = "distance" // millimeters
	WeightDuration = "duration" // milliseconds
	WeightDefault  = "weight"   // third column of an edge list
)

// ErrUnknownWeightSet is returned when a request names a weight set the dataset does not carry.
var ErrUnknownWeightSet = errors.New("unknown weight set")

// Dataset is an unweighted topology plus any number of named weight columns,
// each in CSR order.
type Dataset struct {
	Graph   *Graph
	Weights map[string][]uint32
}

// NewDataset wraps g with an empty set of weight columns.
func NewDataset(g *Graph) *Dataset {
	return &Dataset{Graph: g, Weights: make(map[string][]uint32)}
}

// WeightSet returns the named weight column. The empty name selects no
// weights, i.e. hop counts.
func (d *Dataset) WeightSet(name string) ([]uint32, error) {
	if name == "" {
		return nil, nil
	}
	w, ok := d.Weights[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWeightSet, name)
	}
	return w, nil
}

// WeightNames returns the weight set names in sorted order.
func (d *Dataset) WeightNames() []string {
	names := make([]string, 0, len(d.Weights))
	for name := range d.Weights {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate checks the graph invariants and the length of every weight set.
func (d *Dataset) Validate() error {
	if err := d.Graph.Validate(); err != nil {
		return err
	}
	numEdges := d.Graph.NumEdges()
	for name, w := range d.Weights {
		if uint32(len(w)) != numEdges {
			return fmt.Errorf("weight set %q has %d values, want %d", name, len(w), numEdges)
		}
	}
	return nil
}

// ReadEdgeList parses a plain text edge list: one "src dst [weight]" triple
// per line, '#' starts a comment. Either every edge carries a weight or none
// does; in the former case the dataset holds a "weight" set.
func ReadEdgeList(r io.Reader) (*Dataset, error) {
	var edges []RawEdge
	var maxVertex uint32
	weighted := -1 // unknown until the first edge

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 && len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 2 or 3 fields, got %d", lineNo, len(fields))
		}

		hasWeight := 0
		if len(fields) == 3 {
			hasWeight = 1
		}
		if weighted == -1 {
			weighted = hasWeight
		} else if weighted != hasWeight {
			return nil, fmt.Errorf("line %d: mixed weighted and unweighted edges", lineNo)
		}

		var e RawEdge
		vals := [3]*uint32{&e.From, &e.To, &e.Weight}
		for i, f := range fields {
			n, err := strconv.ParseUint(f, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: field %d: %w", lineNo, i+1, err)
			}
			*vals[i] = uint32(n)
		}
		if e.From == NoEdge || e.To == NoEdge {
			return nil, fmt.Errorf("line %d: vertex id out of range", lineNo)
		}
		maxVertex = max(maxVertex, e.From, e.To)
		edges = append(edges, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read edge list: %w", err)
	}

	if len(edges) == 0 {
		return NewDataset(&Graph{}), nil
	}

	g, _ := Build(maxVertex+1, edges, weighted == 1)
	ds := NewDataset(g.WithWeights(nil))
	if g.Weighted() {
		ds.Weights[WeightDefault] = g.Weight
	}
	return ds, nil
}
