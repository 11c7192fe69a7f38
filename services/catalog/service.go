package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"critiverse/models"
	"critiverse/storage"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidKind   = errors.New("invalid kind")
	ErrNotFound      = errors.New("content not found")
)

// ImageResolver backfills artwork for items saved without one.
type ImageResolver interface {
	ResolveImage(ctx context.Context, kind models.Kind, title string) string
}

// Service manages the browsable catalog on top of the relational store.
type Service struct {
	store  *storage.Store
	images ImageResolver
}

// NewService creates the catalog service. The image resolver is optional;
// without one, items keep whatever image URL the submitter provided.
func NewService(store *storage.Store, images ImageResolver) *Service {
	return &Service{store: store, images: images}
}

// Create validates and stores a new catalog item. A missing image URL is
// backfilled from the external catalogs on a best-effort basis.
func (s *Service) Create(ctx context.Context, payload models.CatalogUpsert) (models.CatalogItem, error) {
	item, err := s.itemFromPayload(ctx, payload)
	if err != nil {
		return models.CatalogItem{}, err
	}

	created, err := s.store.InsertContent(item)
	if err != nil {
		return models.CatalogItem{}, err
	}
	log.Printf("[catalog] created id=%d kind=%s title=%q", created.ID, created.Kind, created.Title)
	return created, nil
}

// Update validates and overwrites an existing item.
func (s *Service) Update(ctx context.Context, id int64, payload models.CatalogUpsert) (models.CatalogItem, error) {
	item, err := s.itemFromPayload(ctx, payload)
	if err != nil {
		return models.CatalogItem{}, err
	}
	item.ID = id

	updated, err := s.store.UpdateContent(item)
	if errors.Is(err, storage.ErrNotFound) {
		return models.CatalogItem{}, ErrNotFound
	}
	return updated, err
}

// Delete removes an item along with its reviews and favorites.
func (s *Service) Delete(id int64) error {
	err := s.store.DeleteContent(id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err == nil {
		log.Printf("[catalog] deleted id=%d", id)
	}
	return err
}

// Get fetches one item by ID.
func (s *Service) Get(id int64) (models.CatalogItem, error) {
	item, err := s.store.GetContent(id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.CatalogItem{}, ErrNotFound
	}
	return item, err
}

// List returns a filtered, sorted page of one kind's items together with the
// total page count for that filter.
func (s *Service) List(kind models.Kind, filters Filters, sortKey SortKey, page, perPage int) ([]models.CatalogItem, int, error) {
	items, err := s.store.ListContents(kind)
	if err != nil {
		return nil, 0, err
	}

	filtered := Apply(items, filters)
	Sort(filtered, sortKey)
	return Paginate(filtered, page, perPage), PageCount(len(filtered), perPage), nil
}

func (s *Service) itemFromPayload(ctx context.Context, payload models.CatalogUpsert) (models.CatalogItem, error) {
	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return models.CatalogItem{}, ErrTitleRequired
	}
	// Browse coerces unknown kinds to the default tab; writes reject them
	// so a typo never files content under the wrong catalog.
	kind, ok := models.ParseKind(payload.Kind)
	if !ok {
		return models.CatalogItem{}, fmt.Errorf("%w: %q", ErrInvalidKind, payload.Kind)
	}

	item := models.CatalogItem{
		Title:        title,
		Kind:         kind,
		Year:         payload.Year,
		Genre:        strings.TrimSpace(payload.Genre),
		Description:  strings.TrimSpace(payload.Description),
		ImageURL:     strings.TrimSpace(payload.ImageURL),
		AverageScore: payload.AverageScore,
		Platforms:    normalizePlatforms(payload.Platforms),
		Ongoing:      payload.Ongoing,
	}

	if item.ImageURL == "" && s.images != nil {
		item.ImageURL = s.images.ResolveImage(ctx, kind, title)
	}
	return item, nil
}

func normalizePlatforms(platforms []string) []string {
	out := make([]string, 0, len(platforms))
	seen := make(map[string]struct{}, len(platforms))
	for _, p := range platforms {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
