package reviews

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"critiverse/models"
	"critiverse/storage"
)

var (
	ErrTitleRequired = errors.New("review title is required")
	ErrBodyRequired  = errors.New("review body is required")
	ErrInvalidScore  = errors.New("score must be between 1 and 10")
	ErrNotFound      = errors.New("review not found")
	ErrForbidden     = errors.New("not allowed to delete this review")
)

// Service manages user reviews. Every write recomputes the content item's
// average score so listings never show a stale aggregate.
type Service struct {
	store *storage.Store
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// Submit validates and stores a review, then returns the persisted row.
// Validation happens before any I/O.
func (s *Service) Submit(contentID int64, userID, username string, payload models.ReviewSubmit) (models.Review, error) {
	title := strings.TrimSpace(payload.Title)
	body := strings.TrimSpace(payload.Body)
	if title == "" {
		return models.Review{}, ErrTitleRequired
	}
	if body == "" {
		return models.Review{}, ErrBodyRequired
	}
	if payload.Score < 1 || payload.Score > 10 {
		return models.Review{}, ErrInvalidScore
	}

	review := models.Review{
		ID:        uuid.NewString(),
		ContentID: contentID,
		UserID:    userID,
		Username:  username,
		Title:     title,
		Body:      body,
		Score:     payload.Score,
		Date:      time.Now().UTC(),
	}

	saved, err := s.store.InsertReview(review)
	if err != nil {
		return models.Review{}, err
	}
	s.refreshAverage(contentID)
	log.Printf("[reviews] submitted id=%s content=%d score=%d", saved.ID, contentID, saved.Score)
	return saved, nil
}

// List returns a content item's reviews, newest first. No reviews is an
// empty slice.
func (s *Service) List(contentID int64) ([]models.Review, error) {
	return s.store.ListReviews(contentID)
}

// Delete removes a review. Users may delete their own reviews; admins may
// delete anyone's.
func (s *Service) Delete(reviewID, userID string, isAdmin bool) error {
	review, err := s.store.GetReview(reviewID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !isAdmin && review.UserID != userID {
		return ErrForbidden
	}

	if err := s.store.DeleteReview(reviewID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.refreshAverage(review.ContentID)
	return nil
}

// refreshAverage recomputes and stores the content's review average.
// Best effort: a failed refresh leaves the old aggregate and a log line.
func (s *Service) refreshAverage(contentID int64) {
	avg, err := s.store.AverageReviewScore(contentID)
	if err != nil {
		log.Printf("[reviews] average recompute failed content=%d err=%v", contentID, err)
		return
	}
	if err := s.store.SetAverageScore(contentID, avg); err != nil {
		log.Printf("[reviews] average write failed content=%d err=%v", contentID, err)
	}
}
