package metadata

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"critiverse/models"
)

func TestFeedGamesUpcomingNormalization(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		if req.URL.Host == "api.rawg.io" && req.URL.Path == "/api/games" {
			if !strings.Contains(req.URL.RawQuery, "dates=") {
				t.Errorf("expected a dates window in query, got %s", req.URL.RawQuery)
			}
			return jsonResponse(`{"results":[{
				"id":999,
				"name":"Future Game",
				"released":"2027-03-15",
				"background_image":"https://cdn.example/bg.jpg",
				"metacritic":87,
				"genres":[{"name":"RPG"}],
				"platforms":[
					{"platform":{"name":"PlayStation 5"}},
					{"platform":{"name":"PC"}},
					{"platform":{"name":"PlayStation 4"}}
				]
			}]}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	items := svc.Feed(context.Background(), FeedGamesUpcoming)
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	item := items[0]
	if item.Kind != models.KindGame || item.Title != "Future Game" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.Year != 2027 {
		t.Errorf("expected year 2027, got %d", item.Year)
	}
	if item.AverageScore != 8.7 {
		t.Errorf("expected score 8.7, got %v", item.AverageScore)
	}
	if item.Genre != "RPG" {
		t.Errorf("expected genre RPG, got %q", item.Genre)
	}
	wantPlatforms := []string{"playstation", "pc"}
	if len(item.Platforms) != 2 || item.Platforms[0] != wantPlatforms[0] || item.Platforms[1] != wantPlatforms[1] {
		t.Errorf("expected platforms %v, got %v", wantPlatforms, item.Platforms)
	}
}

func TestFeedMoviesUpcomingTranslatesGenres(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/3/movie/upcoming":
			return jsonResponse(`{"results":[{
				"id":604685,
				"title":"Next Blockbuster",
				"overview":"Explosions.",
				"release_date":"2026-11-20",
				"poster_path":"/poster.jpg",
				"vote_average":7.26,
				"genre_ids":[28,12]
			}]}`), nil
		case "/3/genre/movie/list":
			return jsonResponse(`{"genres":[{"id":28,"name":"Azione"},{"id":12,"name":"Avventura"}]}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	items := svc.Feed(context.Background(), FeedMoviesUpcoming)
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	item := items[0]
	if item.Genre != "Azione" {
		t.Errorf("expected first genre id to win, got %q", item.Genre)
	}
	if item.ImageURL != tmdbImageBaseURL+"/poster.jpg" {
		t.Errorf("unexpected image url: %s", item.ImageURL)
	}
	if item.AverageScore != 7.3 {
		t.Errorf("expected rounded score 7.3, got %v", item.AverageScore)
	}
	if item.Year != 2026 {
		t.Errorf("expected year 2026, got %d", item.Year)
	}
}

func TestFeedSeriesBestQueriesDiscoverTV(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/3/discover/tv":
			q := req.URL.Query()
			if q.Get("vote_count.gte") == "" || q.Get("vote_average.gte") == "" {
				t.Errorf("expected a vote floor in query, got %s", req.URL.RawQuery)
			}
			if q.Get("first_air_date.gte") == "" {
				t.Errorf("expected a first air date window, got %s", req.URL.RawQuery)
			}
			return jsonResponse(`{"results":[{
				"id":1396,
				"name":"Acclaimed Show",
				"first_air_date":"2008-01-20",
				"poster_path":"/show.jpg",
				"vote_average":8.92,
				"genre_ids":[18]
			}]}`), nil
		case "/3/genre/tv/list":
			return jsonResponse(`{"genres":[{"id":18,"name":"Dramma"}]}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	items := svc.Feed(context.Background(), FeedSeriesBest)
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	item := items[0]
	if item.Kind != models.KindSeries || item.Title != "Acclaimed Show" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.Year != 2008 {
		t.Errorf("expected year 2008, got %d", item.Year)
	}
	if item.Genre != "Dramma" {
		t.Errorf("expected translated genre, got %q", item.Genre)
	}
	if item.AverageScore != 8.9 {
		t.Errorf("expected rounded score 8.9, got %v", item.AverageScore)
	}
}

func TestFeedFailureYieldsEmptySlice(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("provider down")
	})

	items := svc.Feed(context.Background(), FeedGamesBest)
	if items == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestRefreshFeedsReportsFailures(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("provider down")
	})

	if err := svc.RefreshFeeds(context.Background()); err == nil {
		t.Fatal("expected an aggregate error when every feed fails")
	}
}

func TestRefreshFeedsWarmsCache(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		switch {
		case req.URL.Host == "api.rawg.io" && req.URL.Path == "/api/games":
			return jsonResponse(`{"results":[{"id":1,"name":"Cached Game","released":"2026-01-01"}]}`), nil
		case req.URL.Path == "/3/movie/upcoming", req.URL.Path == "/3/discover/movie",
			req.URL.Path == "/3/tv/on_the_air", req.URL.Path == "/3/discover/tv":
			return jsonResponse(`{"results":[{"id":2,"title":"Cached Movie","name":"Cached Show"}]}`), nil
		case strings.HasPrefix(req.URL.Path, "/3/genre/"):
			return jsonResponse(`{"genres":[]}`), nil
		}
		return jsonResponse(`{"results":[]}`), nil
	})

	if err := svc.RefreshFeeds(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// A cached feed must answer without touching the network again.
	cold := newTestService(func(req *http.Request) (*http.Response, error) {
		t.Errorf("unexpected request after refresh: %s", req.URL)
		return jsonResponse(`{"results":[]}`), nil
	})
	cold.cache = svc.cache
	items := cold.Feed(context.Background(), FeedGamesUpcoming)
	if len(items) != 1 || items[0].Title != "Cached Game" {
		t.Fatalf("expected warmed cache to serve the feed, got %+v", items)
	}
}

func TestMapPlatformKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"PlayStation 5", "playstation"},
		{"Xbox Series S/X", "xbox"},
		{"Nintendo Switch", "switch"},
		{"PC", "pc"},
		{"macOS", ""},
	}
	for _, tt := range tests {
		if got := mapPlatformKey(tt.in); got != tt.want {
			t.Errorf("mapPlatformKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeMetacriticScore(t *testing.T) {
	if got := normalizeMetacriticScore(87); got != 8.7 {
		t.Errorf("expected 8.7, got %v", got)
	}
	if got := normalizeMetacriticScore(0); got != 0 {
		t.Errorf("expected 0 for missing score, got %v", got)
	}
}
