package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"critiverse/models"
	"critiverse/services/metadata"
)

// MetadataHandler handles trailer, provider, stats, and feed resolution
// endpoints. Resolution misses are 200s with empty-shaped payloads; upstream
// failures never surface as 5xx here.
type MetadataHandler struct {
	metadata *metadata.Service
}

// NewMetadataHandler creates a new metadata handler.
func NewMetadataHandler(metadataSvc *metadata.Service) *MetadataHandler {
	return &MetadataHandler{metadata: metadataSvc}
}

// TrailerResponse wraps a trailer resolution result. URL is null when no
// trailer could be found anywhere in the chain.
type TrailerResponse struct {
	Source models.TrailerSource `json:"source"`
	Kind   models.TrailerKind   `json:"kind"`
	URL    *string              `json:"url"`
}

// Trailer resolves the best available trailer for ?kind=&title=&year=.
func (h *MetadataHandler) Trailer(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := strings.TrimSpace(q.Get("title"))
	kind := models.NormalizeKind(q.Get("kind"))
	year := parseIntParam(q.Get("year"))

	result := h.metadata.ResolveTrailer(r.Context(), kind, title, year)

	resp := TrailerResponse{Source: result.Source, Kind: result.Kind}
	if result.URL != "" {
		resp.URL = &result.URL
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Providers resolves the watch/store providers for ?kind=&title=.
// Always an array, possibly empty.
func (h *MetadataHandler) Providers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := strings.TrimSpace(q.Get("title"))
	kind := models.NormalizeKind(q.Get("kind"))

	entries := h.metadata.ResolveWatchProviders(r.Context(), kind, title)
	if entries == nil {
		entries = []models.WatchProviderEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// SeriesStats resolves season/episode counts for ?title=. Unknown series
// come back as zeroes.
func (h *MetadataHandler) SeriesStats(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))

	stats := h.metadata.ResolveSeriesStats(r.Context(), title)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// Feed returns a browse feed (upcoming/best) by name. Unknown names are 404;
// a feed that cannot be fetched is an empty array.
func (h *MetadataHandler) Feed(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := metadata.FeedName(vars["name"])

	known := false
	for _, n := range metadata.FeedNames() {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		http.Error(w, `{"error": "unknown feed"}`, http.StatusNotFound)
		return
	}

	items := h.metadata.Feed(r.Context(), name)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// RefreshFeeds forces a refetch of every feed cache (admin only).
func (h *MetadataHandler) RefreshFeeds(w http.ResponseWriter, r *http.Request) {
	if err := h.metadata.RefreshFeeds(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "feeds refreshed"})
}

// ClearCache wipes the metadata cache (admin only).
func (h *MetadataHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.metadata.ClearCache(); err != nil {
		http.Error(w, `{"error": "failed to clear cache"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "cache cleared"})
}

// Options handles CORS preflight requests.
func (h *MetadataHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
