// Package httpapi exposes the citation resolver and model catalog to the
// wrappr client over HTTP.
package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	ometrics "github.com/GianScala/wrappr-core/internal/metrics"
	"github.com/GianScala/wrappr-core/internal/sources"
)

// SourcesHandler serves the citation-resolution endpoint backing the chat
// surface's sources panel.
type SourcesHandler struct {
	logger *zap.Logger
}

func NewSourcesHandler(logger *zap.Logger) *SourcesHandler {
	return &SourcesHandler{logger: logger}
}

// RegisterRoutes registers the sources routes on the provided mux.
func (h *SourcesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/sources/resolve", h.handleResolve)
}

type resolveRequest struct {
	ResponseText string                 `json:"response_text"`
	Sources      interface{}            `json:"sources"`
	WebSearch    *sources.WebSearchMeta `json:"web_search,omitempty"`
}

type resolveResponse struct {
	CitedNumbers   []int                      `json:"cited_numbers"`
	Sources        []sources.NormalizedSource `json:"sources"`
	Counts         sources.FilterCounts       `json:"counts"`
	HasDisplayable bool                       `json:"has_displayable"`
	HasAnySources  bool                       `json:"has_any_sources"`
}

// handleResolve runs the full resolution path: extract cited numbers from
// the response text, normalize the raw result records, filter to what the
// client should render. Malformed source payloads resolve to empty results
// rather than errors; only an unreadable request body is a client error.
func (h *SourcesHandler) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	cited := sources.ExtractCitedNumbers(req.ResponseText)
	normalized := sources.NormalizeSources(req.Sources)
	selected := sources.SelectDisplaySources(normalized, cited)
	counts := sources.CountDisplayable(selected)

	ometrics.CitationsExtracted.Observe(float64(len(cited)))
	ometrics.SourcesDisplayed.Observe(float64(counts.Sources))

	resp := resolveResponse{
		CitedNumbers:   cited.Values(),
		Sources:        selected,
		Counts:         counts,
		HasDisplayable: sources.HasDisplayableContent(counts),
		HasAnySources:  req.WebSearch.HasAnySources() || len(normalized) > 0,
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", zap.Error(err))
	}
}
