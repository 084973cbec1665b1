package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dunglas/httpsfv"

	"autoparse/internal/document"
	"autoparse/internal/model"
)

// SummaryHeader carries the worklist counts as an RFC 8941 dictionary,
// e.g. "processing=12, untracked=4".
const SummaryHeader = "Worklist-Summary"

// handleListUntracked returns processing orders without track & trace.
// GET /orders
func (h *Handler) handleListUntracked(w http.ResponseWriter, r *http.Request) {
	orders, processing, err := h.worklist.Summary(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	if summary, err := summaryHeader(processing, len(orders)); err != nil {
		h.logger.Warn("failed to encode summary header", slog.String("error", err.Error()))
	} else {
		w.Header().Set(SummaryHeader, summary)
	}

	h.writeJSON(w, http.StatusOK, nonNil(orders))
}

// handleListAll returns every processing order, unfiltered.
// GET /orders/all
func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.worklist.All(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, nonNil(orders))
}

// handleDownloadDocx generates today's document and streams it back.
// The body is the bytes this request rendered, not a re-read of the shared
// output file.
// GET /orders/docx
func (h *Handler) handleDownloadDocx(w http.ResponseWriter, r *http.Request) {
	file, err := h.documents.Generate(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", document.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name()))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Warn("failed to write document", slog.String("error", err.Error()))
	}
}

// summaryHeader encodes the worklist counts as a structured field dictionary.
func summaryHeader(processing, untracked int) (string, error) {
	dict := httpsfv.NewDictionary()
	dict.Add("processing", httpsfv.NewItem(int64(processing)))
	dict.Add("untracked", httpsfv.NewItem(int64(untracked)))
	return httpsfv.Marshal(dict)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil(orders []model.Order) []model.Order {
	if orders == nil {
		return []model.Order{}
	}
	return orders
}
