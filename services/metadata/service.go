package metadata

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"critiverse/models"
)

// Service resolves human-readable titles against the external catalogs (RAWG
// for games, TMDB for movies and series, YouTube search as trailer fallback)
// and normalizes the results. Every public lookup is total: it never panics,
// never returns an error, and always settles within the sum of the configured
// per-request timeouts. A miss of any sort - no match, network failure,
// timeout, malformed payload - yields the type's empty value. The transport
// failures are logged so outages stay distinguishable from genuine not-found
// in the logs, without changing the external contract.
type Service struct {
	tmdb    *tmdbClient
	rawg    *rawgClient
	youtube *youtubeClient

	cache *fileCache
	// Separate cache for title->ID mappings with a longer TTL, since those
	// rarely change.
	idCache *fileCache

	primaryLocale  string
	fallbackLocale string
}

// stableIDCacheTTLMultiplier is applied to the ID-mapping cache.
const stableIDCacheTTLMultiplier = 7

// Config carries the service construction knobs.
type Config struct {
	TMDBAPIKey    string
	RAWGAPIKey    string
	YouTubeAPIKey string

	// PrimaryLocale is tried first on every search (default it-IT),
	// FallbackLocale second (default en-US). Region selects the watch
	// provider bundle (default IT).
	PrimaryLocale  string
	FallbackLocale string
	Region         string

	CacheDir string
	CacheTTL time.Duration
	// RequestTimeout bounds every single outbound call (default 10s).
	RequestTimeout time.Duration

	// HTTPClient and CacheFs are injectable for tests.
	HTTPClient *http.Client
	CacheFs    afero.Fs
}

// NewService wires the three catalog clients and the resolution caches.
func NewService(cfg Config) *Service {
	if cfg.PrimaryLocale == "" {
		cfg.PrimaryLocale = "it-IT"
	}
	if cfg.FallbackLocale == "" {
		cfg.FallbackLocale = "en-US"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	fs := cfg.CacheFs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	metadataCacheDir := filepath.Join(cfg.CacheDir, "metadata")
	idCacheDir := filepath.Join(cfg.CacheDir, "metadata", "ids")

	return &Service{
		tmdb:           newTMDBClient(cfg.TMDBAPIKey, cfg.Region, cfg.HTTPClient, cfg.RequestTimeout),
		rawg:           newRAWGClient(cfg.RAWGAPIKey, cfg.HTTPClient, cfg.RequestTimeout),
		youtube:        newYouTubeClient(cfg.YouTubeAPIKey, cfg.HTTPClient, cfg.RequestTimeout),
		cache:          newFileCache(fs, metadataCacheDir, cfg.CacheTTL),
		idCache:        newFileCache(fs, idCacheDir, cfg.CacheTTL*stableIDCacheTTLMultiplier),
		primaryLocale:  cfg.PrimaryLocale,
		fallbackLocale: cfg.FallbackLocale,
	}
}

// ClearCache removes all cached metadata.
func (s *Service) ClearCache() error {
	if err := s.cache.clear(); err != nil {
		return err
	}
	return s.idCache.clear()
}

func cacheKey(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h[:])
}

// tmdbMediaType maps a catalog kind onto a TMDB path segment.
func tmdbMediaType(kind models.Kind) string {
	if kind == models.KindMovie {
		return "movie"
	}
	return "tv"
}

// ResolveExternalID resolves a title to an identifier in the kind's catalog
// using exactly one search request for the given locale. An empty or
// whitespace title short-circuits to 0 without any network call. 0 also
// covers no-results and failed requests; the two cases are logged apart.
func (s *Service) ResolveExternalID(ctx context.Context, kind models.Kind, title, locale string) int64 {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0
	}
	if locale == "" {
		locale = s.primaryLocale
	}

	key := cacheKey("id", string(kind), strings.ToLower(title), locale)
	var cached int64
	if ok, _ := s.idCache.get(key, &cached); ok {
		return cached
	}

	var (
		id  int64
		err error
	)
	if kind == models.KindGame {
		id, err = s.rawg.searchID(ctx, title)
	} else {
		id, err = s.tmdb.searchID(ctx, tmdbMediaType(kind), title, locale, 0)
	}
	if err != nil {
		log.Printf("[metadata] search failed kind=%s title=%q locale=%s err=%v", kind, title, locale, err)
		return 0
	}
	if id == 0 {
		log.Printf("[metadata] no match kind=%s title=%q locale=%s", kind, title, locale)
	}

	// Cache hits and misses alike; a stable "no match" is worth remembering.
	_ = s.idCache.set(key, id)
	return id
}

// resolveTMDBIDChain runs the full locale x title-variant breadth for a TMDB
// resolution. Alternatives are data, not nested control flow: the slice below
// is the whole fallback chain.
func (s *Service) resolveTMDBIDChain(ctx context.Context, kind models.Kind, title string, year int) int64 {
	mediaType := tmdbMediaType(kind)

	var attempts []attempt[int64]
	for _, variant := range titleVariants(title) {
		for _, locale := range []string{s.primaryLocale, s.fallbackLocale} {
			variant, locale := variant, locale
			attempts = append(attempts, func(ctx context.Context) (int64, bool) {
				id, err := s.tmdb.searchID(ctx, mediaType, variant, locale, year)
				if err != nil {
					log.Printf("[metadata] tmdb search failed title=%q locale=%s err=%v", variant, locale, err)
					return 0, false
				}
				return id, id > 0
			})
		}
	}

	id, _ := firstHit(ctx, attempts)
	return id
}

// resolveRAWGIDChain tries each title variant against RAWG once.
func (s *Service) resolveRAWGIDChain(ctx context.Context, title string) int64 {
	var attempts []attempt[int64]
	for _, variant := range titleVariants(title) {
		variant := variant
		attempts = append(attempts, func(ctx context.Context) (int64, bool) {
			id, err := s.rawg.searchID(ctx, variant)
			if err != nil {
				log.Printf("[metadata] rawg search failed title=%q err=%v", variant, err)
				return 0, false
			}
			return id, id > 0
		})
	}

	id, _ := firstHit(ctx, attempts)
	return id
}

// ResolveTrailer finds the best trailer for a title. Games prefer the RAWG
// native mp4 clip; movies and series prefer a TMDB-listed YouTube video.
// After catalog exhaustion the chain switches provider category entirely and
// tries a general video search. All alternatives exhausted yields the
// NoTrailer sentinel, never an error.
func (s *Service) ResolveTrailer(ctx context.Context, kind models.Kind, title string, year int) models.TrailerResult {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.NoTrailer()
	}

	key := cacheKey("trailer", string(kind), strings.ToLower(title), strconv.Itoa(year))
	var cached models.TrailerResult
	if ok, _ := s.cache.get(key, &cached); ok {
		return cached
	}

	var result models.TrailerResult
	if kind == models.KindGame {
		result = s.resolveGameTrailer(ctx, title)
	} else {
		result = s.resolveScreenTrailer(ctx, kind, title, year)
	}

	_ = s.cache.set(key, result)
	return result
}

func (s *Service) resolveGameTrailer(ctx context.Context, title string) models.TrailerResult {
	cleaned := cleanTitleForSearch(title)
	if cleaned == "" {
		cleaned = title
	}

	attempts := []attempt[models.TrailerResult]{
		func(ctx context.Context) (models.TrailerResult, bool) {
			id := s.resolveRAWGIDChain(ctx, cleaned)
			if id == 0 {
				return models.TrailerResult{}, false
			}
			clip, err := s.rawg.trailerURL(ctx, id)
			if err != nil {
				log.Printf("[metadata] rawg trailer fetch failed id=%d err=%v", id, err)
				return models.TrailerResult{}, false
			}
			if clip == "" {
				return models.TrailerResult{}, false
			}
			return models.TrailerResult{
				Source: models.TrailerSourceCatalog,
				Kind:   models.TrailerKindDirectFile,
				URL:    clip,
			}, true
		},
		func(ctx context.Context) (models.TrailerResult, bool) {
			return s.youtubeFallback(ctx, cleaned+" official trailer")
		},
	}

	if result, ok := firstHit(ctx, attempts); ok {
		return result
	}
	return models.NoTrailer()
}

func (s *Service) resolveScreenTrailer(ctx context.Context, kind models.Kind, title string, year int) models.TrailerResult {
	mediaType := tmdbMediaType(kind)

	// fetchEmbed inspects the video list for one resolved ID, primary locale
	// first, fallback locale second.
	fetchEmbed := func(ctx context.Context, id int64, locales ...string) (models.TrailerResult, bool) {
		for _, locale := range locales {
			videos, err := s.tmdb.videos(ctx, mediaType, id, locale)
			if err != nil {
				log.Printf("[metadata] tmdb videos fetch failed id=%d locale=%s err=%v", id, locale, err)
				continue
			}
			if videoKey := pickTrailerKey(videos); videoKey != "" {
				return models.TrailerResult{
					Source: models.TrailerSourceCatalog,
					Kind:   models.TrailerKindEmbed,
					URL:    youtubeEmbedURL(videoKey),
				}, true
			}
		}
		return models.TrailerResult{}, false
	}

	attempts := []attempt[models.TrailerResult]{
		// Primary-locale search, then that ID's videos in both locales.
		func(ctx context.Context) (models.TrailerResult, bool) {
			id, err := s.tmdb.searchID(ctx, mediaType, title, s.primaryLocale, year)
			if err != nil {
				log.Printf("[metadata] tmdb search failed title=%q locale=%s err=%v", title, s.primaryLocale, err)
				return models.TrailerResult{}, false
			}
			if id == 0 {
				return models.TrailerResult{}, false
			}
			return fetchEmbed(ctx, id, s.primaryLocale, s.fallbackLocale)
		},
		// Fallback-locale search with fallback-locale videos.
		func(ctx context.Context) (models.TrailerResult, bool) {
			id, err := s.tmdb.searchID(ctx, mediaType, title, s.fallbackLocale, year)
			if err != nil {
				log.Printf("[metadata] tmdb search failed title=%q locale=%s err=%v", title, s.fallbackLocale, err)
				return models.TrailerResult{}, false
			}
			if id == 0 {
				return models.TrailerResult{}, false
			}
			return fetchEmbed(ctx, id, s.fallbackLocale)
		},
	}

	// Remaining title variants widen the primary attempt.
	for _, variant := range titleVariants(title)[1:] {
		variant := variant
		attempts = append(attempts, func(ctx context.Context) (models.TrailerResult, bool) {
			id := s.resolveTMDBIDChain(ctx, kind, variant, year)
			if id == 0 {
				return models.TrailerResult{}, false
			}
			return fetchEmbed(ctx, id, s.primaryLocale, s.fallbackLocale)
		})
	}

	// Different provider category entirely: general video search.
	attempts = append(attempts, func(ctx context.Context) (models.TrailerResult, bool) {
		return s.youtubeFallback(ctx, title+" trailer")
	})

	if result, ok := firstHit(ctx, attempts); ok {
		return result
	}
	return models.NoTrailer()
}

func (s *Service) youtubeFallback(ctx context.Context, query string) (models.TrailerResult, bool) {
	embed, err := s.youtube.searchEmbedURL(ctx, query)
	if err != nil {
		log.Printf("[metadata] youtube search failed query=%q err=%v", query, err)
		return models.TrailerResult{}, false
	}
	if embed == "" {
		return models.TrailerResult{}, false
	}
	return models.TrailerResult{
		Source: models.TrailerSourceVideoPlatform,
		Kind:   models.TrailerKindEmbed,
		URL:    embed,
	}, true
}

// ResolveWatchProviders returns the places a title can be watched in the
// configured region, deduplicated by short label. Games get fixed store
// search links since RAWG carries no availability data. An unresolvable
// title or an empty region bundle is an empty slice, never an error.
func (s *Service) ResolveWatchProviders(ctx context.Context, kind models.Kind, title string) []models.WatchProviderEntry {
	title = strings.TrimSpace(title)
	if title == "" {
		return []models.WatchProviderEntry{}
	}

	if kind == models.KindGame {
		return gameStoreLinks(title)
	}

	key := cacheKey("providers", string(kind), strings.ToLower(title))
	var cached []models.WatchProviderEntry
	if ok, _ := s.cache.get(key, &cached); ok && cached != nil {
		return cached
	}

	entries := []models.WatchProviderEntry{}
	if id := s.resolveTMDBIDChain(ctx, kind, title, 0); id > 0 {
		mediaType := tmdbMediaType(kind)
		bundle, err := s.tmdb.watchProviders(ctx, mediaType, id)
		if err != nil {
			log.Printf("[metadata] watch providers fetch failed id=%d err=%v", id, err)
		} else {
			entries = mergeProviderBundle(bundle, s.tmdb.watchPageURL(mediaType, id, s.primaryLocale))
		}
	}

	_ = s.cache.set(key, entries)
	return entries
}

// gameStoreLinks is the fixed storefront fallback for games.
func gameStoreLinks(title string) []models.WatchProviderEntry {
	q := url.QueryEscape(title)
	return []models.WatchProviderEntry{
		{Label: "PlayStation", URL: "https://store.playstation.com/search/" + q},
		{Label: "Xbox", URL: "https://www.xbox.com/search?q=" + q},
		{Label: "Steam", URL: "https://store.steampowered.com/search/?term=" + q},
	}
}

// ResolveSeriesStats reads season/episode counts for a series title.
// Resolution failure at any step yields the zero stats, never an error.
func (s *Service) ResolveSeriesStats(ctx context.Context, title string) models.SeriesStats {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.SeriesStats{}
	}

	key := cacheKey("series-stats", strings.ToLower(title))
	var cached models.SeriesStats
	if ok, _ := s.cache.get(key, &cached); ok {
		return cached
	}

	stats := models.SeriesStats{}
	if id := s.resolveTMDBIDChain(ctx, models.KindSeries, title, 0); id > 0 {
		seasons, episodes, err := s.tmdb.tvDetail(ctx, id, s.primaryLocale)
		if err != nil {
			log.Printf("[metadata] tv detail fetch failed id=%d err=%v", id, err)
		} else {
			stats = models.SeriesStats{Seasons: seasons, Episodes: episodes}
		}
	}

	_ = s.cache.set(key, stats)
	return stats
}

// ResolveImage returns the catalog artwork URL for a title, used to backfill
// items saved without an image.
func (s *Service) ResolveImage(ctx context.Context, kind models.Kind, title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	key := cacheKey("image", string(kind), strings.ToLower(title))
	var cached string
	if ok, _ := s.cache.get(key, &cached); ok {
		return cached
	}

	image := ""
	if kind == models.KindGame {
		image = s.rawgImage(ctx, title)
	} else {
		image = s.tmdbImage(ctx, kind, title)
	}
	_ = s.cache.set(key, image)
	return image
}

func (s *Service) rawgImage(ctx context.Context, title string) string {
	q := url.Values{}
	q.Set("search", title)
	q.Set("page_size", "1")
	var resp struct {
		Results []rawgGame `json:"results"`
	}
	if err := s.rawg.doGET(ctx, "/games", q, &resp); err != nil || len(resp.Results) == 0 {
		return ""
	}
	return resp.Results[0].BackgroundImage
}

func (s *Service) tmdbImage(ctx context.Context, kind models.Kind, title string) string {
	mediaType := tmdbMediaType(kind)
	q := url.Values{}
	q.Set("query", title)
	q.Set("language", s.primaryLocale)
	q.Set("page", "1")
	var resp struct {
		Results []tmdbSearchResult `json:"results"`
	}
	if err := s.tmdb.doGET(ctx, "/search/"+mediaType, q, &resp); err != nil || len(resp.Results) == 0 {
		return ""
	}
	if path := strings.TrimSpace(resp.Results[0].PosterPath); path != "" {
		return tmdbImageBaseURL + path
	}
	return ""
}

const tmdbImageBaseURL = "https://image.tmdb.org/t/p/w780"
