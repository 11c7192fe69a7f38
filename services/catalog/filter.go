package catalog

import (
	"sort"
	"strings"

	"critiverse/models"
)

// Filters narrows a listing. Zero values mean "no constraint": Year 0 skips
// the equality check, MinYear 0 skips the lower bound, empty sets match
// everything.
type Filters struct {
	// Year keeps only items released exactly in that year.
	Year int
	// MinYear keeps items released in or after that year.
	MinYear int
	// Genres matches case-insensitively against the item's genre.
	Genres []string
	// Platforms keeps items available on at least one of the given platforms.
	Platforms []string
}

// SortKey selects a listing order. The zero value keeps store order
// (newest first).
type SortKey string

const (
	SortNone      SortKey = ""
	SortYearAsc   SortKey = "year-asc"
	SortYearDesc  SortKey = "year-desc"
	SortScoreAsc  SortKey = "score-asc"
	SortScoreDesc SortKey = "score-desc"
)

// ParseSortKey maps loose client input onto a SortKey, defaulting to store
// order for anything unrecognized.
func ParseSortKey(value string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(value))) {
	case SortYearAsc, SortYearDesc, SortScoreAsc, SortScoreDesc:
		return SortKey(strings.ToLower(strings.TrimSpace(value)))
	}
	return SortNone
}

// Apply returns the items passing every set filter, preserving input order.
// The input slice is not modified.
func Apply(items []models.CatalogItem, f Filters) []models.CatalogItem {
	out := make([]models.CatalogItem, 0, len(items))
	for _, item := range items {
		if f.Year != 0 && item.Year != f.Year {
			continue
		}
		if f.MinYear != 0 && item.Year < f.MinYear {
			continue
		}
		if len(f.Genres) > 0 && !matchesGenre(item.Genre, f.Genres) {
			continue
		}
		if len(f.Platforms) > 0 && !matchesAnyPlatform(item.Platforms, f.Platforms) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesGenre(genre string, wanted []string) bool {
	for _, w := range wanted {
		if strings.EqualFold(strings.TrimSpace(w), genre) {
			return true
		}
	}
	return false
}

func matchesAnyPlatform(have, wanted []string) bool {
	for _, w := range wanted {
		for _, h := range have {
			if strings.EqualFold(strings.TrimSpace(w), h) {
				return true
			}
		}
	}
	return false
}

// Sort orders items in place. Ties keep their relative order so repeated
// listings stay stable.
func Sort(items []models.CatalogItem, key SortKey) {
	switch key {
	case SortYearAsc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Year < items[j].Year })
	case SortYearDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Year > items[j].Year })
	case SortScoreAsc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].AverageScore < items[j].AverageScore })
	case SortScoreDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].AverageScore > items[j].AverageScore })
	}
}

// Paginate returns the 1-based page of the given size. Out-of-range pages
// and non-positive sizes yield an empty slice.
func Paginate(items []models.CatalogItem, page, perPage int) []models.CatalogItem {
	if page < 1 || perPage < 1 {
		return []models.CatalogItem{}
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return []models.CatalogItem{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// PageCount reports how many pages of the given size cover n items.
func PageCount(n, perPage int) int {
	if n <= 0 || perPage < 1 {
		return 0
	}
	return (n + perPage - 1) / perPage
}
