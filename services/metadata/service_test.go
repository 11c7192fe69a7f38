package metadata

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"

	"critiverse/models"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newTestService(rt roundTripFunc) *Service {
	return NewService(Config{
		TMDBAPIKey:     "tmdb-key",
		RAWGAPIKey:     "rawg-key",
		YouTubeAPIKey:  "yt-key",
		CacheDir:       "/cache",
		CacheTTL:       time.Hour,
		RequestTimeout: 2 * time.Second,
		HTTPClient:     &http.Client{Transport: rt},
		CacheFs:        afero.NewMemMapFs(),
	})
}

func TestResolveExternalIDEmptyTitle(t *testing.T) {
	var requests int64
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt64(&requests, 1)
		return jsonResponse(`{"results":[]}`), nil
	})

	if id := svc.ResolveExternalID(context.Background(), models.KindMovie, "   ", ""); id != 0 {
		t.Fatalf("expected 0 for whitespace title, got %d", id)
	}
	if got := atomic.LoadInt64(&requests); got != 0 {
		t.Fatalf("expected no network call for empty title, got %d requests", got)
	}
}

func TestResolveExternalIDFixture(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == "/3/search/movie" && strings.Contains(req.URL.RawQuery, "Inception") {
			return jsonResponse(`{"results":[{"id":27205,"title":"Inception"}]}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	if id := svc.ResolveExternalID(context.Background(), models.KindMovie, "Inception", "it-IT"); id != 27205 {
		t.Fatalf("expected 27205, got %d", id)
	}
	if id := svc.ResolveExternalID(context.Background(), models.KindMovie, "Totally Unknown Title Xyz123", "it-IT"); id != 0 {
		t.Fatalf("expected 0 for unknown title, got %d", id)
	}
}

func TestResolveExternalIDTransportFailure(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	if id := svc.ResolveExternalID(context.Background(), models.KindSeries, "Dark", ""); id != 0 {
		t.Fatalf("expected 0 on transport failure, got %d", id)
	}
}

func TestResolveTrailerMovieCatalogHit(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		switch {
		case req.URL.Path == "/3/search/movie":
			if !strings.Contains(req.URL.RawQuery, "primary_release_year=2010") {
				t.Errorf("expected year filter in search query, got %s", req.URL.RawQuery)
			}
			return jsonResponse(`{"results":[{"id":27205,"title":"Inception"}]}`), nil
		case req.URL.Path == "/3/movie/27205/videos":
			return jsonResponse(`{"results":[
				{"key":"fanclip","site":"YouTube","type":"Clip","official":false},
				{"key":"8hP9D6kZseM","site":"YouTube","type":"Trailer","official":true}
			]}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	result := svc.ResolveTrailer(context.Background(), models.KindMovie, "Inception", 2010)
	if result.Source != models.TrailerSourceCatalog {
		t.Fatalf("expected CATALOG source, got %s", result.Source)
	}
	if result.Kind != models.TrailerKindEmbed {
		t.Fatalf("expected EMBED kind, got %s", result.Kind)
	}
	if result.URL != "https://www.youtube.com/embed/8hP9D6kZseM?rel=0" {
		t.Fatalf("unexpected trailer url: %s", result.URL)
	}
}

func TestResolveTrailerFallsBackToSecondLocale(t *testing.T) {
	var videoLocales []string
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		switch {
		case req.URL.Path == "/3/search/movie":
			return jsonResponse(`{"results":[{"id":550}]}`), nil
		case req.URL.Path == "/3/movie/550/videos":
			locale := req.URL.Query().Get("language")
			videoLocales = append(videoLocales, locale)
			if locale == "en-US" {
				return jsonResponse(`{"results":[{"key":"enkey","site":"YouTube","type":"Trailer","official":true}]}`), nil
			}
			return jsonResponse(`{"results":[]}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	result := svc.ResolveTrailer(context.Background(), models.KindMovie, "Fight Club", 0)
	if result.URL != "https://www.youtube.com/embed/enkey?rel=0" {
		t.Fatalf("expected en-US video key, got %q", result.URL)
	}
	if len(videoLocales) < 2 || videoLocales[0] != "it-IT" || videoLocales[1] != "en-US" {
		t.Fatalf("expected it-IT then en-US video fetches, got %v", videoLocales)
	}
}

func TestResolveTrailerYouTubeFallback(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		if req.URL.Host == "www.googleapis.com" {
			return jsonResponse(`{"items":[{"id":{"videoId":"ytFallback1"}}]}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	result := svc.ResolveTrailer(context.Background(), models.KindSeries, "Some Obscure Show", 0)
	if result.Source != models.TrailerSourceVideoPlatform {
		t.Fatalf("expected VIDEO_PLATFORM source, got %s", result.Source)
	}
	if result.Kind != models.TrailerKindEmbed {
		t.Fatalf("expected EMBED kind, got %s", result.Kind)
	}
	if result.URL != "https://www.youtube.com/embed/ytFallback1?rel=0" {
		t.Fatalf("unexpected fallback url: %s", result.URL)
	}
}

func TestResolveTrailerNeverErrors(t *testing.T) {
	// Every single alternative fails at the transport level; the resolver
	// must still settle on the sentinel.
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("injected network failure")
	})

	for _, kind := range []models.Kind{models.KindGame, models.KindMovie, models.KindSeries} {
		result := svc.ResolveTrailer(context.Background(), kind, "Totally Unknown Title Xyz123", 0)
		if result != models.NoTrailer() {
			t.Fatalf("kind %s: expected NoTrailer sentinel, got %+v", kind, result)
		}
	}
}

func TestResolveTrailerAllMissesReturnsSentinel(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		if req.URL.Host == "www.googleapis.com" {
			return jsonResponse(`{"items":[]}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	result := svc.ResolveTrailer(context.Background(), models.KindMovie, "Totally Unknown Title Xyz123", 0)
	want := models.TrailerResult{Source: models.TrailerSourceCatalog, Kind: models.TrailerKindDirectFile, URL: ""}
	if result != want {
		t.Fatalf("expected empty sentinel, got %+v", result)
	}
}

func TestResolveGameTrailerPrefersCatalogClip(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		switch {
		case req.URL.Host == "api.rawg.io" && req.URL.Path == "/api/games":
			return jsonResponse(`{"results":[{"id":3498,"name":"The Witcher 3: Wild Hunt"}]}`), nil
		case req.URL.Path == "/api/games/3498/movies":
			return jsonResponse(`{"results":[{"preview":"https://cdn.example/preview.jpg","data":{"max":"https://cdn.example/trailer-max.mp4","480":"https://cdn.example/trailer-480.mp4"}}]}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	result := svc.ResolveTrailer(context.Background(), models.KindGame, "The Witcher 3: Wild Hunt (GOTY)", 0)
	if result.Source != models.TrailerSourceCatalog || result.Kind != models.TrailerKindDirectFile {
		t.Fatalf("expected catalog mp4 pick, got %+v", result)
	}
	if result.URL != "https://cdn.example/trailer-max.mp4" {
		t.Fatalf("expected max quality url, got %s", result.URL)
	}
}

func TestResolveGameTrailerClipFallback(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		switch {
		case req.URL.Path == "/api/games" && req.URL.Host == "api.rawg.io":
			return jsonResponse(`{"results":[{"id":42}]}`), nil
		case req.URL.Path == "/api/games/42/movies":
			return jsonResponse(`{"results":[]}`), nil
		case req.URL.Path == "/api/games/42":
			return jsonResponse(`{"clip":{"clip":"https://cdn.example/clip-full.mp4","clips":{"640":"https://cdn.example/clip-640.mp4"}}}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	result := svc.ResolveTrailer(context.Background(), models.KindGame, "Clip Only Game", 0)
	if result.URL != "https://cdn.example/clip-full.mp4" {
		t.Fatalf("expected detail clip url, got %s", result.URL)
	}
}

func TestResolveWatchProvidersDedupesLabels(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		switch {
		case req.URL.Path == "/3/search/tv":
			return jsonResponse(`{"results":[{"id":66732,"name":"Stranger Things"}]}`), nil
		case req.URL.Path == "/3/tv/66732/watch/providers":
			return jsonResponse(`{"results":{"IT":{
				"link":"https://www.themoviedb.org/tv/66732-stranger-things/watch",
				"flatrate":[{"provider_id":8,"provider_name":"Netflix"}],
				"rent":[{"provider_id":693,"provider_name":"Netflix Italy"},{"provider_id":119,"provider_name":"Amazon Prime Video"}],
				"buy":[{"provider_id":8,"provider_name":"Netflix"}]
			}}}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	entries := svc.ResolveWatchProviders(context.Background(), models.KindSeries, "Stranger Things")
	if len(entries) != 2 {
		t.Fatalf("expected 2 deduplicated entries, got %d: %+v", len(entries), entries)
	}
	netflix := 0
	for _, e := range entries {
		if e.Label == "Netflix" {
			netflix++
		}
		if e.URL == "" {
			t.Fatalf("entry %q has no url", e.Label)
		}
	}
	if netflix != 1 {
		t.Fatalf("expected exactly one Netflix entry, got %d", netflix)
	}
}

func TestResolveWatchProvidersEmptyRegionBundle(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		switch {
		case req.URL.Path == "/3/search/movie":
			return jsonResponse(`{"results":[{"id":901}]}`), nil
		case req.URL.Path == "/3/movie/901/watch/providers":
			return jsonResponse(`{"results":{}}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	entries := svc.ResolveWatchProviders(context.Background(), models.KindMovie, "Regionless Movie")
	if entries == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries for empty bundle, got %+v", entries)
	}
}

func TestResolveWatchProvidersGameStoreLinks(t *testing.T) {
	var requests int64
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt64(&requests, 1)
		return jsonResponse(`{"results":[]}`), nil
	})

	entries := svc.ResolveWatchProviders(context.Background(), models.KindGame, "Elden Ring")
	if len(entries) != 3 {
		t.Fatalf("expected 3 store links, got %d", len(entries))
	}
	if got := atomic.LoadInt64(&requests); got != 0 {
		t.Fatalf("game store links should not hit the network, got %d requests", got)
	}
}

func TestResolveSeriesStats(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		switch {
		case req.URL.Path == "/3/search/tv":
			return jsonResponse(`{"results":[{"id":1396,"name":"Breaking Bad"}]}`), nil
		case req.URL.Path == "/3/tv/1396":
			return jsonResponse(`{"number_of_seasons":5,"number_of_episodes":62}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	stats := svc.ResolveSeriesStats(context.Background(), "Breaking Bad")
	if stats.Seasons != 5 || stats.Episodes != 62 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestResolveSeriesStatsZeroOnFailure(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == "/3/search/tv" {
			return jsonResponse(`{"results":[{"id":777}]}`), nil
		}
		return nil, errors.New("detail endpoint down")
	})

	stats := svc.ResolveSeriesStats(context.Background(), "Broken Detail Show")
	if stats != (models.SeriesStats{}) {
		t.Fatalf("expected zero stats on detail failure, got %+v", stats)
	}
}

func TestResolveSeriesStatsTriesTitleVariants(t *testing.T) {
	var queries []string
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/3/search/tv":
			q := req.URL.Query().Get("query")
			queries = append(queries, q)
			if q == "Avatar: The Last Airbender" {
				return jsonResponse(`{"results":[{"id":246}]}`), nil
			}
			return jsonResponse(`{"results":[]}`), nil
		case "/3/tv/246":
			return jsonResponse(`{"number_of_seasons":3,"number_of_episodes":61}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	stats := svc.ResolveSeriesStats(context.Background(), "Avatar - The Last Airbender")
	if stats.Seasons != 3 {
		t.Fatalf("expected variant search to resolve, got %+v (queries %v)", stats, queries)
	}
	if len(queries) < 3 {
		t.Fatalf("expected the verbatim title to be tried in both locales before the variant, got %v", queries)
	}
}

func TestTrailerResultIsCached(t *testing.T) {
	var searches int64
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/3/search/movie":
			atomic.AddInt64(&searches, 1)
			return jsonResponse(`{"results":[{"id":27205}]}`), nil
		case "/3/movie/27205/videos":
			return jsonResponse(`{"results":[{"key":"abc","site":"YouTube","type":"Trailer","official":true}]}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	first := svc.ResolveTrailer(context.Background(), models.KindMovie, "Inception", 2010)
	second := svc.ResolveTrailer(context.Background(), models.KindMovie, "Inception", 2010)
	if first != second {
		t.Fatalf("cached result differs: %+v vs %+v", first, second)
	}
	if got := atomic.LoadInt64(&searches); got != 1 {
		t.Fatalf("expected a single search thanks to the cache, got %d", got)
	}
}

func TestUnconfiguredClientsMakeNoRequests(t *testing.T) {
	var requests int64
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt64(&requests, 1)
		return jsonResponse(`{"results":[]}`), nil
	})
	svc := NewService(Config{
		// No API keys at all.
		CacheDir:       "/cache",
		CacheTTL:       time.Hour,
		RequestTimeout: 2 * time.Second,
		HTTPClient:     &http.Client{Transport: rt},
		CacheFs:        afero.NewMemMapFs(),
	})

	if id := svc.ResolveExternalID(context.Background(), models.KindMovie, "Inception", ""); id != 0 {
		t.Fatalf("expected 0 without a TMDB key, got %d", id)
	}
	if trailer := svc.ResolveTrailer(context.Background(), models.KindGame, "Hades", 0); trailer.URL != "" {
		t.Fatalf("expected empty trailer without keys, got %q", trailer.URL)
	}
	if got := atomic.LoadInt64(&requests); got != 0 {
		t.Fatalf("expected unconfigured clients to skip the network, got %d requests", got)
	}
}
