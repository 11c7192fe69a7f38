package models

import (
	"strings"
	"time"
)

// Kind identifies which catalog a piece of content belongs to. It determines
// both the external metadata provider (RAWG for games, TMDB for movies and
// series) and the fallback chain used when resolving trailers and providers.
type Kind string

const (
	KindGame   Kind = "GAME"
	KindMovie  Kind = "MOVIE"
	KindSeries Kind = "SERIES"
)

// ParseKind maps loose user/client input onto a canonical Kind. The second
// return is false when the value matches no known catalog.
func ParseKind(value string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "MOVIE", "MOVIES", "FILM", "FILMS":
		return KindMovie, true
	case "SERIES", "SERIE", "TV", "SHOW", "SHOWS":
		return KindSeries, true
	case "GAME", "GAMES":
		return KindGame, true
	}
	return KindGame, false
}

// NormalizeKind is ParseKind with unrecognized values coerced to KindGame,
// the default browse tab. Browse paths use this; writes go through ParseKind
// so a typo never files content under the wrong catalog.
func NormalizeKind(value string) Kind {
	kind, _ := ParseKind(value)
	return kind
}

// IsValid reports whether the kind is one of the three known catalogs.
func (k Kind) IsValid() bool {
	switch k {
	case KindGame, KindMovie, KindSeries:
		return true
	}
	return false
}

// CatalogItem is the canonical record for a browsable piece of content,
// produced by normalizing backend rows or third-party payloads. Instances are
// immutable per fetch; every listing recreates them from the store.
type CatalogItem struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Kind         Kind     `json:"kind"`
	Year         int      `json:"year,omitempty"`
	Genre        string   `json:"genre,omitempty"`
	Description  string   `json:"description,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	AverageScore float64  `json:"averageScore,omitempty"`
	Platforms    []string `json:"platforms,omitempty"`
	Ongoing      bool     `json:"ongoing,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// CatalogUpsert is the payload accepted when creating or updating an item.
type CatalogUpsert struct {
	Title        string   `json:"title"`
	Kind         string   `json:"kind"`
	Year         int      `json:"year,omitempty"`
	Genre        string   `json:"genre,omitempty"`
	Description  string   `json:"description,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	AverageScore float64  `json:"averageScore,omitempty"`
	Platforms    []string `json:"platforms,omitempty"`
	Ongoing      bool     `json:"ongoing,omitempty"`
}

// Favorite is a per-user bookmark of a catalog item.
type Favorite struct {
	ContentID int64     `json:"contentId"`
	Title     string    `json:"title"`
	Kind      Kind      `json:"kind"`
	AddedAt   time.Time `json:"addedAt"`
}
