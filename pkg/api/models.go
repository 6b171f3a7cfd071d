package api

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumVertices uint32   `json:"num_vertices"`
	NumEdges    uint32   `json:"num_edges"`
	WeightSets  []string `json:"weight_sets"`
	Coordinates bool     `json:"coordinates"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
