package favorites

import (
	"errors"
	"testing"

	"critiverse/models"
	"critiverse/storage"
)

func newTestService(t *testing.T) (*Service, int64) {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	item, err := store.InsertContent(models.CatalogItem{Title: "The Witcher 3", Kind: models.KindGame, Year: 2015})
	if err != nil {
		t.Fatalf("seed content: %v", err)
	}
	return NewService(store), item.ID
}

func TestToggleFlipsState(t *testing.T) {
	svc, contentID := newTestService(t)

	on, err := svc.Toggle("u1", contentID)
	if err != nil || !on {
		t.Fatalf("first toggle: on=%v err=%v", on, err)
	}

	fav, err := svc.IsFavorite("u1", contentID)
	if err != nil || !fav {
		t.Fatalf("expected favorite after toggle: fav=%v err=%v", fav, err)
	}

	off, err := svc.Toggle("u1", contentID)
	if err != nil || off {
		t.Fatalf("second toggle must remove: on=%v err=%v", off, err)
	}

	list, err := svc.List("u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty favorites, got %d", len(list))
	}
}

func TestFavoritesArePerUser(t *testing.T) {
	svc, contentID := newTestService(t)

	if _, err := svc.Toggle("u1", contentID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	fav, err := svc.IsFavorite("u2", contentID)
	if err != nil {
		t.Fatalf("is favorite: %v", err)
	}
	if fav {
		t.Fatal("another user's toggle must not leak")
	}
}

func TestUserIDRequired(t *testing.T) {
	svc, contentID := newTestService(t)

	if _, err := svc.Toggle("", contentID); !errors.Is(err, ErrUserIDRequired) {
		t.Fatalf("expected ErrUserIDRequired, got %v", err)
	}
	if _, err := svc.List(""); !errors.Is(err, ErrUserIDRequired) {
		t.Fatalf("expected ErrUserIDRequired, got %v", err)
	}
}
