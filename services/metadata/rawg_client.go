package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Minimal RAWG client (key auth, search plus the per-game movie/clip
// endpoints used for game trailers).

const rawgBaseURL = "https://api.rawg.io/api"

type rawgClient struct {
	apiKey  string
	httpc   *http.Client
	timeout time.Duration
}

func newRAWGClient(apiKey string, httpc *http.Client, timeout time.Duration) *rawgClient {
	if httpc == nil {
		httpc = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &rawgClient{apiKey: apiKey, httpc: httpc, timeout: timeout}
}

func (c *rawgClient) isConfigured() bool {
	return c != nil && strings.TrimSpace(c.apiKey) != ""
}

func (c *rawgClient) doGET(ctx context.Context, path string, q url.Values, v any) error {
	if !c.isConfigured() {
		return errMissingAPIKey
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("key", c.apiKey)
	endpoint := rawgBaseURL + path + "?" + q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return decodeJSONResponse(c.httpc, req, "rawg", v)
}

// rawgGame is the search/list result shape.
type rawgGame struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Released        string `json:"released"`
	BackgroundImage string `json:"background_image"`
	Metacritic      int    `json:"metacritic"`
	Genres          []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Platforms []struct {
		Platform struct {
			Name string `json:"name"`
		} `json:"platform"`
	} `json:"platforms"`
}

// searchID resolves a game title to a RAWG ID with a single page-size-1
// search. No results is (0, nil); only transport problems are errors.
func (c *rawgClient) searchID(ctx context.Context, query string) (int64, error) {
	q := url.Values{}
	q.Set("search", query)
	q.Set("page_size", "1")
	var resp struct {
		Results []rawgGame `json:"results"`
	}
	if err := c.doGET(ctx, "/games", q, &resp); err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 {
		return 0, nil
	}
	return resp.Results[0].ID, nil
}

// trailerURL returns the game's native mp4 trailer: the /movies endpoint
// first (max > 720 > 480 > preview), then the detail record's clip
// (full > 640 > 320). Empty string means the catalog has no clip at all.
func (c *rawgClient) trailerURL(ctx context.Context, id int64) (string, error) {
	var movies struct {
		Results []struct {
			Preview string            `json:"preview"`
			Data    map[string]string `json:"data"`
		} `json:"results"`
	}
	if err := c.doGET(ctx, fmt.Sprintf("/games/%d/movies", id), nil, &movies); err != nil {
		return "", err
	}
	if len(movies.Results) > 0 {
		first := movies.Results[0]
		for _, key := range []string{"max", "720", "480"} {
			if u := strings.TrimSpace(first.Data[key]); u != "" {
				return u, nil
			}
		}
		if u := strings.TrimSpace(first.Preview); u != "" {
			return u, nil
		}
	}

	var game struct {
		Clip struct {
			Clip  string            `json:"clip"`
			Clips map[string]string `json:"clips"`
		} `json:"clip"`
	}
	if err := c.doGET(ctx, fmt.Sprintf("/games/%d", id), nil, &game); err != nil {
		return "", err
	}
	if u := strings.TrimSpace(game.Clip.Clip); u != "" {
		return u, nil
	}
	for _, key := range []string{"full", "640", "320"} {
		if u := strings.TrimSpace(game.Clip.Clips[key]); u != "" {
			return u, nil
		}
	}
	return "", nil
}

// upcomingGames lists releases from today forward, soonest first.
func (c *rawgClient) upcomingGames(ctx context.Context, pageSize int) ([]rawgGame, error) {
	if pageSize <= 0 {
		pageSize = 40
	}
	today := time.Now().Format("2006-01-02")
	horizon := time.Now().AddDate(3, 0, 0).Format("2006-01-02")

	q := url.Values{}
	q.Set("dates", today+","+horizon)
	q.Set("ordering", "released")
	q.Set("page_size", strconv.Itoa(pageSize))
	var resp struct {
		Results []rawgGame `json:"results"`
	}
	if err := c.doGET(ctx, "/games", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// bestGames lists top Metacritic games inside a release window.
func (c *rawgClient) bestGames(ctx context.Context, page, pageSize, fromYear, toYear int) ([]rawgGame, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 40
	}
	q := url.Values{}
	q.Set("ordering", "-metacritic")
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	q.Set("dates", fmt.Sprintf("%d-01-01,%d-12-31", fromYear, toYear))
	var resp struct {
		Results []rawgGame `json:"results"`
	}
	if err := c.doGET(ctx, "/games", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
