package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"critiverse/models"
	"critiverse/services/catalog"
)

const defaultPageSize = 20

// CatalogHandler handles catalog browsing and management endpoints.
type CatalogHandler struct {
	catalog *catalog.Service
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalogSvc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: catalogSvc}
}

// ListResponse is the paginated listing envelope.
type ListResponse struct {
	Items     []models.CatalogItem `json:"items"`
	Page      int                  `json:"page"`
	PageCount int                  `json:"pageCount"`
}

// List returns a filtered, sorted, paginated slice of the catalog.
// Query params: kind, year, minYear, genre (repeatable), platform (repeatable),
// sort, page, perPage.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind := models.NormalizeKind(q.Get("kind"))
	filters := catalog.Filters{
		Year:      parseIntParam(q.Get("year")),
		MinYear:   parseIntParam(q.Get("minYear")),
		Genres:    nonEmpty(q["genre"]),
		Platforms: nonEmpty(q["platform"]),
	}
	sortKey := catalog.ParseSortKey(q.Get("sort"))

	page := parseIntParam(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage := parseIntParam(q.Get("perPage"))
	if perPage < 1 {
		perPage = defaultPageSize
	}

	items, pageCount, err := h.catalog.List(kind, filters, sortKey, page, perPage)
	if err != nil {
		http.Error(w, `{"error": "failed to list catalog"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{
		Items:     items,
		Page:      page,
		PageCount: pageCount,
	})
}

// Get returns a single catalog item.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromPath(w, r)
	if !ok {
		return
	}

	item, err := h.catalog.Get(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, `{"error": "content not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error": "failed to load content"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

// Create adds a new catalog item (admin only).
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.CatalogUpsert
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	item, err := h.catalog.Create(r.Context(), payload)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrTitleRequired) || errors.Is(err, catalog.ErrInvalidKind) {
			status = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

// Update replaces a catalog item (admin only).
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromPath(w, r)
	if !ok {
		return
	}

	var payload models.CatalogUpsert
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	item, err := h.catalog.Update(r.Context(), id, payload)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, catalog.ErrTitleRequired) || errors.Is(err, catalog.ErrInvalidKind) {
			status = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

// Delete removes a catalog item (admin only).
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.catalog.Delete(id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, `{"error": "content not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error": "failed to delete content"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Options handles CORS preflight requests.
func (h *CatalogHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func contentIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id < 1 {
		http.Error(w, `{"error": "invalid content id"}`, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func parseIntParam(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
