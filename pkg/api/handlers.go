package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"spfw/pkg/batch"
	"spfw/pkg/graph"
	"spfw/pkg/request"
	"spfw/pkg/snap"
)

// Runner executes batch request documents.
type Runner interface {
	Run(ctx context.Context, doc *request.Document) (*request.Response, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	runner       Runner
	stats        StatsResponse
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewHandlers creates handlers around runner.
func NewHandlers(runner Runner, stats StatsResponse, logger *slog.Logger, maxBodyBytes int64) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		runner:       runner,
		stats:        stats,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// HandleBatch handles POST /api/v1/batch.
func (h *Handlers) HandleBatch(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r.Context())

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "content type must be application/json", reqID)
		return
	}

	var doc request.Document
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "", reqID)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), reqID)
		return
	}
	if doc.ID == "" {
		doc.ID = reqID
	}

	resp, err := h.runner.Run(r.Context(), &doc)
	if err != nil {
		status, code := classify(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("batch failed", "request_id", reqID, "error", err)
			writeError(w, status, code, "", reqID)
			return
		}
		h.logger.Info("batch rejected", "request_id", reqID, "code", code, "error", err)
		writeError(w, status, code, err.Error(), reqID)
		return
	}

	h.logger.Info("batch done", "request_id", reqID, "operation", doc.Operation,
		"matched", resp.Stats.Matched, "traversals", resp.Stats.Traversals)
	writeJSON(w, http.StatusOK, resp)
}

// classify maps a batch error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, snap.ErrPointTooFar):
		return http.StatusUnprocessableEntity, "point_too_far"
	case errors.Is(err, batch.ErrTooManyPairs):
		return http.StatusRequestEntityTooLarge, "too_many_pairs"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request_timeout"
	case errors.Is(err, request.ErrInvalidRequest),
		errors.Is(err, request.ErrNoSnapper),
		errors.Is(err, batch.ErrLengthMismatch),
		errors.Is(err, batch.ErrVertexOutOfRange),
		errors.Is(err, batch.ErrWeightsMismatch),
		errors.Is(err, graph.ErrUnknownWeightSet):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail, reqID string) {
	writeJSON(w, status, ErrorResponse{Error: code, Detail: detail, RequestID: reqID})
}

// DatasetRunner runs documents against a loaded dataset.
type DatasetRunner struct {
	Dataset  *graph.Dataset
	Snapper  *snap.Snapper // nil when the dataset has no coordinates
	MaxPairs int
	Logger   *slog.Logger
}

// Run implements Runner.
func (d *DatasetRunner) Run(ctx context.Context, doc *request.Document) (*request.Response, error) {
	opts := []batch.Option{batch.WithMaxPairs(d.MaxPairs)}
	if d.Logger != nil {
		opts = append(opts, batch.WithLogger(d.Logger.With("request_id", doc.ID)))
	}
	return request.Execute(ctx, doc, d.Dataset, d.Snapper, opts...)
}

// NewStats summarizes a dataset for the stats endpoint.
func NewStats(ds *graph.Dataset) StatsResponse {
	return StatsResponse{
		NumVertices: ds.Graph.NumVertices,
		NumEdges:    ds.Graph.NumEdges(),
		WeightSets:  ds.WeightNames(),
		Coordinates: ds.Graph.HasCoordinates(),
	}
}
