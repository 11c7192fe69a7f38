package favorites

import (
	"errors"

	"critiverse/models"
	"critiverse/storage"
)

var ErrUserIDRequired = errors.New("user id is required")

// Service manages per-user bookmarks of catalog items.
type Service struct {
	store *storage.Store
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// Toggle flips a user's bookmark for a content item and reports the new
// state: true when the item is now a favorite.
func (s *Service) Toggle(userID string, contentID int64) (bool, error) {
	if userID == "" {
		return false, ErrUserIDRequired
	}

	current, err := s.store.IsFavorite(userID, contentID)
	if err != nil {
		return false, err
	}
	if current {
		return false, s.store.RemoveFavorite(userID, contentID)
	}
	return true, s.store.AddFavorite(userID, contentID)
}

// IsFavorite reports whether the user has bookmarked the item.
func (s *Service) IsFavorite(userID string, contentID int64) (bool, error) {
	if userID == "" {
		return false, ErrUserIDRequired
	}
	return s.store.IsFavorite(userID, contentID)
}

// List returns the user's bookmarks, most recently added first.
func (s *Service) List(userID string) ([]models.Favorite, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	return s.store.ListFavorites(userID)
}
