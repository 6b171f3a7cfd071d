package request

import (
	"io"

	"gopkg.in/yaml.v3"

	"spfw/pkg/batch"
)

// Response is the answer to a Document. Row i of every result belongs to
// the pair (Left[i], Right[i]).
type Response struct {
	ID      string       `json:"id,omitempty" yaml:"id,omitempty"`
	Left    []uint64     `json:"left" yaml:"left"`
	Right   []uint64     `json:"right,omitempty" yaml:"right,omitempty"`
	Results []PathResult `json:"results,omitempty" yaml:"results,omitempty"`
	Stats   Stats        `json:"stats" yaml:"stats"`
}

// PathResult holds the output of one PathSpec, in request order.
type PathResult struct {
	Weights string     `json:"weights,omitempty" yaml:"weights,omitempty"`
	Costs   []uint64   `json:"costs" yaml:"costs"`
	Paths   [][]uint32 `json:"paths,omitempty" yaml:"paths,omitempty,flow"`
}

// Stats summarizes the work of a batch.
type Stats struct {
	Matched    int `json:"matched" yaml:"matched"`
	Traversals int `json:"traversals" yaml:"traversals"`
	Duplicated int `json:"duplicated" yaml:"duplicated"`
	Settled    int `json:"settled" yaml:"settled"`
}

// NewResponse converts a batch result.
func NewResponse(id string, res *batch.Result) *Response {
	resp := &Response{
		ID:    id,
		Left:  res.Left,
		Right: res.Right,
		Stats: Stats{
			Matched:    res.Stats.Matched,
			Traversals: res.Stats.Inits,
			Duplicated: res.Stats.Duplicated,
			Settled:    res.Stats.Settled,
		},
	}
	if resp.Left == nil {
		resp.Left = []uint64{}
	}
	for _, r := range res.Requests {
		pr := PathResult{Weights: r.WeightName, Costs: r.Costs()}
		if pr.Costs == nil {
			pr.Costs = []uint64{}
		}
		if r.ComputePath {
			pr.Paths = r.Paths().Rows()
		}
		resp.Results = append(resp.Results, pr)
	}
	return resp
}

// WriteYAML encodes the response as YAML.
func (r *Response) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
