// Package handler provides HTTP handlers for the order worklist API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"autoparse/internal/document"
	"autoparse/internal/model"
)

// Worklist lists processing orders.
type Worklist interface {
	All(ctx context.Context) ([]model.Order, error)
	Summary(ctx context.Context) ([]model.Order, int, error)
}

// Documents renders the worklist to a .docx file.
type Documents interface {
	Generate(ctx context.Context) (*document.File, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	worklist  Worklist
	documents Documents
	logger    *slog.Logger
}

// New creates a new Handler with the given worklist, document generator, and logger.
func New(w Worklist, d Documents, logger *slog.Logger) *Handler {
	return &Handler{
		worklist:  w,
		documents: d,
		logger:    logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /orders", h.handleListUntracked)
	mux.HandleFunc("GET /orders/all", h.handleListAll)
	mux.HandleFunc("GET /orders/docx", h.handleDownloadDocx)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= http.StatusInternalServerError {
			h.logger.Error("request failed",
				slog.String("code", apiErr.Code),
				slog.String("error", err.Error()),
			)
		}
	} else {
		// Wrap unexpected errors
		apiErr = model.NewInternalError(err)
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
