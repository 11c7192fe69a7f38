package storage

import (
	"fmt"
	"time"

	"critiverse/models"
)

// AddFavorite bookmarks a content item for a user. Adding the same pair twice
// is a no-op.
func (s *Store) AddFavorite(userID string, contentID int64) error {
	_, err := s.db.Exec(`
		INSERT INTO favorites (user_id, content_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, content_id) DO NOTHING`,
		userID, contentID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite drops a user's bookmark. Removing a missing pair is a no-op.
func (s *Store) RemoveFavorite(userID string, contentID int64) error {
	_, err := s.db.Exec(`DELETE FROM favorites WHERE user_id = ? AND content_id = ?`,
		userID, contentID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// IsFavorite reports whether a user has bookmarked a content item.
func (s *Store) IsFavorite(userID string, contentID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = ? AND content_id = ?)`,
		userID, contentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}

// ListFavorites returns a user's bookmarks, most recently added first.
func (s *Store) ListFavorites(userID string) ([]models.Favorite, error) {
	rows, err := s.db.Query(`
		SELECT f.content_id, c.title, c.kind, f.created_at
		FROM favorites f
		JOIN contents c ON c.id = f.content_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, f.content_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []models.Favorite{}
	for rows.Next() {
		var (
			fav  models.Favorite
			kind string
		)
		if err := rows.Scan(&fav.ContentID, &fav.Title, &kind, &fav.AddedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		fav.Kind = models.Kind(kind)
		favorites = append(favorites, fav)
	}
	return favorites, rows.Err()
}
