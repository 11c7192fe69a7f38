package metadata

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"critiverse/models"
)

// FeedName identifies one of the browse feeds backed by the external
// catalogs.
type FeedName string

const (
	FeedGamesUpcoming  FeedName = "games-upcoming"
	FeedGamesBest      FeedName = "games-best"
	FeedMoviesUpcoming FeedName = "movies-upcoming"
	FeedMoviesBest     FeedName = "movies-best"
	FeedSeriesUpcoming FeedName = "series-upcoming"
	FeedSeriesBest     FeedName = "series-best"
)

// FeedNames lists every known feed, in refresh order.
func FeedNames() []FeedName {
	return []FeedName{
		FeedGamesUpcoming,
		FeedGamesBest,
		FeedMoviesUpcoming,
		FeedMoviesBest,
		FeedSeriesUpcoming,
		FeedSeriesBest,
	}
}

// Feed returns the normalized items for a browse feed, from cache when warm.
// A feed that cannot be fetched is an empty slice, never an error; the page
// renders empty rather than failing.
func (s *Service) Feed(ctx context.Context, name FeedName) []models.CatalogItem {
	key := cacheKey("feed", string(name))
	var cached []models.CatalogItem
	if ok, _ := s.cache.get(key, &cached); ok && len(cached) > 0 {
		return cached
	}

	items, err := s.fetchFeed(ctx, name)
	if err != nil {
		log.Printf("[metadata] feed fetch failed name=%s err=%v", name, err)
		return []models.CatalogItem{}
	}
	if len(items) > 0 {
		_ = s.cache.set(key, items)
	}
	return items
}

// RefreshFeeds refetches every feed and rewrites the cache. Feeds are
// independent of each other so they refresh concurrently, with the worker
// count bounded; alternatives inside a single resolution chain stay
// sequential as always.
func (s *Service) RefreshFeeds(ctx context.Context) error {
	p := pool.New().WithMaxGoroutines(3).WithErrors()
	for _, name := range FeedNames() {
		name := name
		p.Go(func() error {
			items, err := s.fetchFeed(ctx, name)
			if err != nil {
				return fmt.Errorf("refresh feed %s: %w", name, err)
			}
			if len(items) > 0 {
				_ = s.cache.set(cacheKey("feed", string(name)), items)
			}
			log.Printf("[metadata] refreshed feed name=%s items=%d", name, len(items))
			return nil
		})
	}
	return p.Wait()
}

func (s *Service) fetchFeed(ctx context.Context, name FeedName) ([]models.CatalogItem, error) {
	currentYear := time.Now().Year()

	switch name {
	case FeedGamesUpcoming:
		games, err := s.rawg.upcomingGames(ctx, 40)
		if err != nil {
			return nil, err
		}
		return normalizeRAWGGames(games), nil

	case FeedGamesBest:
		games, err := s.rawg.bestGames(ctx, 1, 40, 1990, currentYear)
		if err != nil {
			return nil, err
		}
		return normalizeRAWGGames(games), nil

	case FeedMoviesUpcoming:
		results, err := s.tmdb.upcomingMovies(ctx, s.primaryLocale)
		if err != nil {
			return nil, err
		}
		return s.normalizeTMDBResults(ctx, results, models.KindMovie), nil

	case FeedMoviesBest:
		results, err := s.tmdb.bestMovies(ctx, s.primaryLocale, 7, 500, 1980, currentYear, 1)
		if err != nil {
			return nil, err
		}
		return s.normalizeTMDBResults(ctx, results, models.KindMovie), nil

	case FeedSeriesUpcoming:
		results, err := s.tmdb.onTheAirSeries(ctx, s.primaryLocale, 1)
		if err != nil {
			return nil, err
		}
		return s.normalizeTMDBResults(ctx, results, models.KindSeries), nil

	case FeedSeriesBest:
		results, err := s.tmdb.bestSeries(ctx, s.primaryLocale, 7, 500, 1980, currentYear, 1)
		if err != nil {
			return nil, err
		}
		return s.normalizeTMDBResults(ctx, results, models.KindSeries), nil
	}

	return nil, fmt.Errorf("unknown feed: %s", name)
}

// normalizeRAWGGames maps raw RAWG payloads onto canonical catalog items.
func normalizeRAWGGames(games []rawgGame) []models.CatalogItem {
	items := make([]models.CatalogItem, 0, len(games))
	for _, g := range games {
		item := models.CatalogItem{
			ID:           g.ID,
			Title:        g.Name,
			Kind:         models.KindGame,
			Year:         parseReleaseYear(g.Released),
			ImageURL:     g.BackgroundImage,
			AverageScore: normalizeMetacriticScore(g.Metacritic),
		}
		if len(g.Genres) > 0 {
			item.Genre = g.Genres[0].Name
		}
		for _, p := range g.Platforms {
			if key := mapPlatformKey(p.Platform.Name); key != "" {
				item.Platforms = appendUnique(item.Platforms, key)
			}
		}
		items = append(items, item)
	}
	return items
}

// normalizeTMDBResults maps TMDB list payloads onto canonical catalog items,
// translating genre IDs through the genre table when it is available.
func (s *Service) normalizeTMDBResults(ctx context.Context, results []tmdbSearchResult, kind models.Kind) []models.CatalogItem {
	genreTable, err := s.cachedGenres(ctx, kind)
	if err != nil {
		log.Printf("[metadata] genre table fetch failed kind=%s err=%v", kind, err)
		genreTable = map[int64]string{}
	}

	items := make([]models.CatalogItem, 0, len(results))
	for _, r := range results {
		title := r.Title
		if title == "" {
			title = r.Name
		}
		item := models.CatalogItem{
			ID:           r.ID,
			Title:        title,
			Kind:         kind,
			Year:         parseReleaseYear(firstNonEmpty(r.ReleaseDate, r.FirstAirDate)),
			Description:  r.Overview,
			AverageScore: roundScore(r.VoteAverage),
		}
		if r.PosterPath != "" {
			item.ImageURL = tmdbImageBaseURL + r.PosterPath
		}
		for _, gid := range r.GenreIDs {
			if name := genreTable[gid]; name != "" {
				item.Genre = name
				break
			}
		}
		items = append(items, item)
	}
	return items
}

func (s *Service) cachedGenres(ctx context.Context, kind models.Kind) (map[int64]string, error) {
	mediaType := tmdbMediaType(kind)
	key := cacheKey("genres", mediaType, s.primaryLocale)
	var cached map[int64]string
	if ok, _ := s.cache.get(key, &cached); ok && len(cached) > 0 {
		return cached, nil
	}
	table, err := s.tmdb.genres(ctx, mediaType, s.primaryLocale)
	if err != nil {
		return nil, err
	}
	_ = s.cache.set(key, table)
	return table, nil
}

// mapPlatformKey folds RAWG's many platform names onto the four families the
// UI filters by.
func mapPlatformKey(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "playstation"):
		return "playstation"
	case strings.Contains(n, "xbox"):
		return "xbox"
	case strings.Contains(n, "switch"), strings.Contains(n, "nintendo"):
		return "switch"
	case strings.Contains(n, "pc"), strings.Contains(n, "windows"):
		return "pc"
	}
	return ""
}

// normalizeMetacriticScore converts a 0-100 Metacritic score to the 1-10
// scale the rest of the catalog uses.
func normalizeMetacriticScore(metacritic int) float64 {
	if metacritic <= 0 {
		return 0
	}
	return roundScore(float64(metacritic) / 10)
}

func roundScore(score float64) float64 {
	return math.Round(score*10) / 10
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
