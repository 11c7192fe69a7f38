package handlers

import (
	"encoding/json"
	"net/http"

	"critiverse/api"
	"critiverse/services/favorites"
)

// FavoritesHandler handles favorite endpoints for the authenticated account.
type FavoritesHandler struct {
	favorites *favorites.Service
}

// NewFavoritesHandler creates a new favorites handler.
func NewFavoritesHandler(favoritesSvc *favorites.Service) *FavoritesHandler {
	return &FavoritesHandler{favorites: favoritesSvc}
}

// List returns the account's favorites, newest first.
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.favorites.List(api.GetAccountID(r))
	if err != nil {
		http.Error(w, `{"error": "failed to list favorites"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// Toggle flips the favorite state of a catalog item and returns the result.
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromPath(w, r)
	if !ok {
		return
	}

	favorited, err := h.favorites.Toggle(api.GetAccountID(r), id)
	if err != nil {
		http.Error(w, `{"error": "failed to toggle favorite"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"favorited": favorited})
}

// Options handles CORS preflight requests.
func (h *FavoritesHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
