package metadata

import (
	"regexp"
	"strings"

	"critiverse/models"
)

// shortProviderLabel collapses the long provider names TMDB returns
// ("Netflix Italy", "Amazon Prime Video with Ads") onto the short labels the
// UI renders. Matching is by substring so regional variants fold together;
// unknown providers keep a trimmed version of their own name.
func shortProviderLabel(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))

	switch {
	case strings.Contains(n, "netflix"):
		return "Netflix"
	case strings.Contains(n, "hbo"):
		return "HBO Max"
	case strings.Contains(n, "disney"):
		return "Disney+"
	case strings.Contains(n, "prime"), strings.Contains(n, "amazon"):
		return "Prime Video"
	case strings.Contains(n, "apple"):
		return "Apple TV+"
	case strings.Contains(n, "now"):
		return "NOW"
	case strings.Contains(n, "paramount"):
		return "Paramount+"
	}

	cleaned := strings.TrimSpace(providerNoise.ReplaceAllString(name, ""))
	// Truncate on runes, not bytes: provider names can carry accents.
	if runes := []rune(cleaned); len(runes) > 16 {
		cleaned = string(runes[:16])
	}
	return cleaned
}

var providerNoise = regexp.MustCompile(`(?i)italy|channel|channels|subscription|subscriptions`)

// mergeProviderBundle flattens a region bundle (subscription, rental,
// purchase) into one list. Entries are deduplicated twice: by provider ID
// within the raw bundle, then by case-insensitive short label after mapping,
// so "Netflix" and "Netflix Italy" yield a single entry.
func mergeProviderBundle(bundle tmdbProviderBundle, fallbackURL string) []models.WatchProviderEntry {
	raw := make([]tmdbProvider, 0, len(bundle.Flatrate)+len(bundle.Rent)+len(bundle.Buy))
	raw = append(raw, bundle.Flatrate...)
	raw = append(raw, bundle.Rent...)
	raw = append(raw, bundle.Buy...)

	link := strings.TrimSpace(bundle.Link)
	if link == "" {
		link = fallbackURL
	}

	seenID := make(map[int64]struct{}, len(raw))
	seenLabel := make(map[string]struct{}, len(raw))
	out := make([]models.WatchProviderEntry, 0, len(raw))
	for _, p := range raw {
		if p.ProviderID == 0 {
			continue
		}
		if _, dup := seenID[p.ProviderID]; dup {
			continue
		}
		seenID[p.ProviderID] = struct{}{}

		label := shortProviderLabel(p.ProviderName)
		if label == "" {
			continue
		}
		key := strings.ToUpper(label)
		if _, dup := seenLabel[key]; dup {
			continue
		}
		seenLabel[key] = struct{}{}

		out = append(out, models.WatchProviderEntry{Label: label, URL: link})
	}
	return out
}
