package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"critiverse/models"
)

// InsertReview stores a review and returns the persisted row.
func (s *Store) InsertReview(review models.Review) (models.Review, error) {
	_, err := s.db.Exec(`
		INSERT INTO reviews (id, content_id, user_id, username, title, body, score, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.ContentID, review.UserID, review.Username,
		review.Title, review.Body, review.Score, review.Date,
	)
	if err != nil {
		return models.Review{}, fmt.Errorf("insert review: %w", err)
	}
	return s.GetReview(review.ID)
}

// GetReview fetches one review by ID.
func (s *Store) GetReview(id string) (models.Review, error) {
	row := s.db.QueryRow(`
		SELECT id, content_id, user_id, username, title, body, score, date
		FROM reviews WHERE id = ?`, id)
	review, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Review{}, ErrNotFound
	}
	return review, err
}

// ListReviews returns every review for a content item, newest first.
func (s *Store) ListReviews(contentID int64) ([]models.Review, error) {
	rows, err := s.db.Query(`
		SELECT id, content_id, user_id, username, title, body, score, date
		FROM reviews WHERE content_id = ?
		ORDER BY date DESC, id DESC`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// DeleteReview removes one review.
func (s *Store) DeleteReview(id string) error {
	res, err := s.db.Exec(`DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AverageReviewScore computes the mean score over a content item's reviews,
// 0 when it has none.
func (s *Store) AverageReviewScore(contentID int64) (float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRow(`SELECT AVG(score) FROM reviews WHERE content_id = ?`, contentID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average review score: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

func scanReview(row rowScanner) (models.Review, error) {
	var review models.Review
	err := row.Scan(&review.ID, &review.ContentID, &review.UserID, &review.Username,
		&review.Title, &review.Body, &review.Score, &review.Date)
	return review, err
}
