package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"critiverse/handlers"
	"critiverse/internal/auth"
	"critiverse/models"
	"critiverse/services/accounts"
	"critiverse/services/catalog"
	"critiverse/services/reviews"
	"critiverse/storage"
)

type reviewsFixture struct {
	handler  *handlers.ReviewsHandler
	reviews  *reviews.Service
	accounts *accounts.Service
	content  models.CatalogItem
}

func setupReviewsHandler(t *testing.T) reviewsFixture {
	t.Helper()
	tmpDir := t.TempDir()

	store, err := storage.Open(tmpDir)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	accountsSvc, err := accounts.NewService(tmpDir)
	if err != nil {
		t.Fatalf("failed to create accounts service: %v", err)
	}

	catalogSvc := catalog.NewService(store, nil)
	content, err := catalogSvc.Create(context.Background(), models.CatalogUpsert{
		Title: "Hollow Knight",
		Kind:  "GAME",
		Year:  2017,
	})
	if err != nil {
		t.Fatalf("failed to seed content: %v", err)
	}

	reviewsSvc := reviews.NewService(store)
	return reviewsFixture{
		handler:  handlers.NewReviewsHandler(reviewsSvc, accountsSvc),
		reviews:  reviewsSvc,
		accounts: accountsSvc,
		content:  content,
	}
}

func (f reviewsFixture) newAccount(t *testing.T, username string) models.Account {
	t.Helper()
	acc, err := f.accounts.Create(accounts.Signup{Username: username, Password: "secret123"})
	if err != nil {
		t.Fatalf("failed to create account %q: %v", username, err)
	}
	return acc
}

// authedRequest injects the session context the auth middleware would set.
func authedRequest(req *http.Request, accountID string, isAdmin bool) *http.Request {
	ctx := context.WithValue(req.Context(), auth.ContextKeyAccountID, accountID)
	ctx = context.WithValue(ctx, auth.ContextKeyIsAdmin, isAdmin)
	return req.WithContext(ctx)
}

func TestSubmitReview(t *testing.T) {
	f := setupReviewsHandler(t)
	acc := f.newAccount(t, "carol")
	id := fmt.Sprint(f.content.ID)

	body, _ := json.Marshal(models.ReviewSubmit{
		Title: "A gem",
		Body:  "Beautiful and punishing in equal measure.",
		Score: 9,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/catalog/"+id+"/reviews", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": id})
	req = authedRequest(req, acc.ID, false)
	rec := httptest.NewRecorder()

	f.handler.Submit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var review models.Review
	if err := json.Unmarshal(rec.Body.Bytes(), &review); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if review.ID == "" {
		t.Error("expected a persisted review ID")
	}
	if review.Username != "carol" {
		t.Errorf("expected username 'carol', got %q", review.Username)
	}
}

func TestSubmitReview_InvalidScore(t *testing.T) {
	f := setupReviewsHandler(t)
	acc := f.newAccount(t, "carol")
	id := fmt.Sprint(f.content.ID)

	body, _ := json.Marshal(models.ReviewSubmit{Title: "x", Body: "y", Score: 11})
	req := httptest.NewRequest(http.MethodPost, "/api/catalog/"+id+"/reviews", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": id})
	req = authedRequest(req, acc.ID, false)
	rec := httptest.NewRecorder()

	f.handler.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestListReviews_NewestFirst(t *testing.T) {
	f := setupReviewsHandler(t)
	acc := f.newAccount(t, "carol")

	for i := 1; i <= 3; i++ {
		_, err := f.reviews.Submit(f.content.ID, acc.ID, acc.Username, models.ReviewSubmit{
			Title: fmt.Sprintf("Take %d", i),
			Body:  "body",
			Score: i + 5,
		})
		if err != nil {
			t.Fatalf("failed to submit review %d: %v", i, err)
		}
	}

	id := fmt.Sprint(f.content.ID)
	req := httptest.NewRequest(http.MethodGet, "/api/catalog/"+id+"/reviews", nil)
	req = mux.SetURLVars(req, map[string]string{"id": id})
	rec := httptest.NewRecorder()

	f.handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var list []models.Review
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 reviews, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Date.After(list[i-1].Date) {
			t.Error("reviews not ordered newest first")
		}
	}
}

func TestDeleteReview_OwnerAndAdmin(t *testing.T) {
	f := setupReviewsHandler(t)
	owner := f.newAccount(t, "carol")
	other := f.newAccount(t, "dave")

	review, err := f.reviews.Submit(f.content.ID, owner.ID, owner.Username, models.ReviewSubmit{
		Title: "Mine",
		Body:  "body",
		Score: 7,
	})
	if err != nil {
		t.Fatalf("failed to submit review: %v", err)
	}

	// Another non-admin account cannot delete it.
	req := httptest.NewRequest(http.MethodDelete, "/api/reviews/"+review.ID, nil)
	req = mux.SetURLVars(req, map[string]string{"reviewID": review.ID})
	req = authedRequest(req, other.ID, false)
	rec := httptest.NewRecorder()

	f.handler.Delete(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for foreign delete, got %d", rec.Code)
	}

	// An admin can.
	req = httptest.NewRequest(http.MethodDelete, "/api/reviews/"+review.ID, nil)
	req = mux.SetURLVars(req, map[string]string{"reviewID": review.ID})
	req = authedRequest(req, other.ID, true)
	rec = httptest.NewRecorder()

	f.handler.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for admin delete, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteReview_NotFound(t *testing.T) {
	f := setupReviewsHandler(t)
	acc := f.newAccount(t, "carol")

	req := httptest.NewRequest(http.MethodDelete, "/api/reviews/nope", nil)
	req = mux.SetURLVars(req, map[string]string{"reviewID": "nope"})
	req = authedRequest(req, acc.ID, false)
	rec := httptest.NewRecorder()

	f.handler.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
