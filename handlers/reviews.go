package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"critiverse/api"
	"critiverse/models"
	"critiverse/services/accounts"
	"critiverse/services/reviews"
)

// ReviewsHandler handles review endpoints.
type ReviewsHandler struct {
	reviews  *reviews.Service
	accounts *accounts.Service
}

// NewReviewsHandler creates a new reviews handler.
func NewReviewsHandler(reviewsSvc *reviews.Service, accountsSvc *accounts.Service) *ReviewsHandler {
	return &ReviewsHandler{
		reviews:  reviewsSvc,
		accounts: accountsSvc,
	}
}

// List returns the reviews for a catalog item, newest first.
func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromPath(w, r)
	if !ok {
		return
	}

	list, err := h.reviews.List(id)
	if err != nil {
		http.Error(w, `{"error": "failed to list reviews"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// Submit posts a review for a catalog item as the authenticated account.
func (h *ReviewsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromPath(w, r)
	if !ok {
		return
	}

	accountID := api.GetAccountID(r)
	account, found := h.accounts.Get(accountID)
	if !found {
		http.Error(w, `{"error": "account not found"}`, http.StatusUnauthorized)
		return
	}

	var payload models.ReviewSubmit
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	review, err := h.reviews.Submit(id, account.ID, account.Username, payload)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case reviews.ErrTitleRequired, reviews.ErrBodyRequired, reviews.ErrInvalidScore:
			status = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(review)
}

// Delete removes a review. Accounts may delete their own reviews; admins may
// delete any.
func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	reviewID := vars["reviewID"]
	if reviewID == "" {
		http.Error(w, `{"error": "invalid review id"}`, http.StatusBadRequest)
		return
	}

	err := h.reviews.Delete(reviewID, api.GetAccountID(r), api.IsAdmin(r))
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case reviews.ErrNotFound:
			status = http.StatusNotFound
		case reviews.ErrForbidden:
			status = http.StatusForbidden
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Options handles CORS preflight requests.
func (h *ReviewsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
