// Package request turns request documents into batch queries and batch
// results into response documents.
package request

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"spfw/pkg/batch"
	"spfw/pkg/graph"
	"spfw/pkg/snap"
)

var (
	// ErrInvalidRequest is returned for structurally invalid documents.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoSnapper is returned when a document uses coordinates but the
	// dataset has none.
	ErrNoSnapper = errors.New("coordinates given but dataset has no spatial index")
)

// Document is a batch request as read from YAML or JSON.
type Document struct {
	ID                string       `json:"id,omitempty" yaml:"id,omitempty"`
	Operation         string       `json:"operation" yaml:"operation"`
	Sources           []uint32     `json:"sources,omitempty" yaml:"sources,omitempty"`
	Destinations      []uint32     `json:"destinations,omitempty" yaml:"destinations,omitempty"`
	SourcePoints      []snap.Point `json:"source_points,omitempty" yaml:"source_points,omitempty"`
	DestinationPoints []snap.Point `json:"destination_points,omitempty" yaml:"destination_points,omitempty"`
	CandidatesLeft    []uint64     `json:"candidates_left,omitempty" yaml:"candidates_left,omitempty"`
	CandidatesRight   []uint64     `json:"candidates_right,omitempty" yaml:"candidates_right,omitempty"`
	GroupBySource     bool         `json:"group_by_source,omitempty" yaml:"group_by_source,omitempty"`
	ShortestPaths     []PathSpec   `json:"shortest_paths,omitempty" yaml:"shortest_paths,omitempty"`
}

// PathSpec asks for costs, and optionally paths, under a named weight set.
// An empty Weights counts hops.
type PathSpec struct {
	Weights string `json:"weights,omitempty" yaml:"weights,omitempty"`
	Path    bool   `json:"path,omitempty" yaml:"path,omitempty"`
}

// Decode reads a YAML document. JSON input is accepted as well since it is
// valid YAML.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidRequest)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return &doc, nil
}

// EnsureID assigns a random id to documents that carry none.
func (d *Document) EnsureID() string {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return d.ID
}

// Build resolves vertices and weight sets against ds. The snapper may be nil
// if the document uses vertex indices only.
func Build(doc *Document, ds *graph.Dataset, snapper *snap.Snapper) (*batch.Query, []*batch.ShortestPathRequest, error) {
	mode, err := batch.ParseMode(doc.Operation)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	src, err := resolve("sources", doc.Sources, doc.SourcePoints, snapper)
	if err != nil {
		return nil, nil, err
	}
	dst, err := resolve("destinations", doc.Destinations, doc.DestinationPoints, snapper)
	if err != nil {
		return nil, nil, err
	}

	q := &batch.Query{
		Mode:            mode,
		Src:             src,
		Dst:             dst,
		CandidatesLeft:  doc.CandidatesLeft,
		CandidatesRight: doc.CandidatesRight,
	}

	reqs := make([]*batch.ShortestPathRequest, 0, len(doc.ShortestPaths))
	columns := make(map[string][]uint32)
	for _, spec := range doc.ShortestPaths {
		w, ok := columns[spec.Weights]
		if !ok {
			if w, err = ds.WeightSet(spec.Weights); err != nil {
				return nil, nil, err
			}
			columns[spec.Weights] = w
		}
		reqs = append(reqs, &batch.ShortestPathRequest{
			Weights:     w,
			WeightName:  spec.Weights,
			ComputePath: spec.Path,
		})
	}
	return q, reqs, nil
}

func resolve(field string, ids []uint32, points []snap.Point, snapper *snap.Snapper) ([]uint32, error) {
	switch {
	case len(ids) > 0 && len(points) > 0:
		return nil, fmt.Errorf("%w: both %s and %s points given", ErrInvalidRequest, field, field)
	case len(points) > 0:
		if snapper == nil {
			return nil, ErrNoSnapper
		}
		v, err := snapper.SnapAll(points)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		return v, nil
	default:
		return ids, nil
	}
}

// Execute builds and runs a document.
func Execute(ctx context.Context, doc *Document, ds *graph.Dataset, snapper *snap.Snapper, opts ...batch.Option) (*Response, error) {
	q, reqs, err := Build(doc, ds, snapper)
	if err != nil {
		return nil, err
	}
	if doc.GroupBySource {
		opts = append(opts, batch.WithGroupBySource())
	}
	res, err := batch.Execute(ctx, ds.Graph, q, reqs, opts...)
	if err != nil {
		return nil, err
	}
	return NewResponse(doc.ID, res), nil
}
