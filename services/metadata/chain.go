package metadata

import (
	"context"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// attempt is one alternative in a fallback chain. It reports a hit via the
// boolean; failures of any sort (network, timeout, no match) are a plain miss.
type attempt[T any] func(ctx context.Context) (T, bool)

// firstHit runs the alternatives in order and returns the first hit. Each
// alternative executes at most once, strictly after the previous one settled.
// When every alternative misses, the zero value is returned. The chain's
// breadth (locales x title variants x providers) is its only redundancy; there
// are no retries.
func firstHit[T any](ctx context.Context, attempts []attempt[T]) (T, bool) {
	for _, try := range attempts {
		if ctx.Err() != nil {
			break
		}
		if v, ok := try(ctx); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// titleVariants returns the ordered list of title spellings to try against a
// search endpoint. Transforms are deliberately conservative: punctuation swaps
// between the common "Title - Subtitle" and "Title: Subtitle" forms, plus an
// ASCII fold for accented titles. Duplicates are dropped, order preserved.
func titleVariants(title string) []string {
	base := strings.TrimSpace(title)
	if base == "" {
		return nil
	}

	candidates := []string{
		base,
		dashToColon(base),
		colonToDash(base),
		strings.TrimSpace(unidecode.Unidecode(base)),
	}

	seen := make(map[string]struct{}, len(candidates))
	variants := make([]string, 0, len(candidates))
	for _, v := range candidates {
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		variants = append(variants, v)
	}
	return variants
}

var (
	dashSeparator  = regexp.MustCompile(`\s+-\s+`)
	colonSeparator = regexp.MustCompile(`:\s+`)
	bracketedPart  = regexp.MustCompile(`\(.*?\)|\[.*?]`)
)

func dashToColon(s string) string { return dashSeparator.ReplaceAllString(s, ": ") }

func colonToDash(s string) string { return colonSeparator.ReplaceAllString(s, " - ") }

// cleanTitleForSearch strips bracketed qualifiers ("(2018)", "[Remastered]")
// before a free-text video search.
func cleanTitleForSearch(title string) string {
	return strings.TrimSpace(bracketedPart.ReplaceAllString(title, ""))
}
