package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Minimal TMDB v3 client (key auth, the search/videos/providers/detail and
// feed endpoints we need).

const tmdbBaseURL = "https://api.themoviedb.org/3"

type tmdbClient struct {
	apiKey  string
	region  string
	httpc   *http.Client
	timeout time.Duration
}

func newTMDBClient(apiKey, region string, httpc *http.Client, timeout time.Duration) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = "IT"
	}
	return &tmdbClient{apiKey: apiKey, region: region, httpc: httpc, timeout: timeout}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && strings.TrimSpace(c.apiKey) != ""
}

// doGET performs one bounded GET against the TMDB API. Exactly one request
// per call: a failure is reported to the caller, which treats it as a miss
// and moves to the next alternative in its chain.
func (c *tmdbClient) doGET(ctx context.Context, path string, q url.Values, v any) error {
	if !c.isConfigured() {
		return errMissingAPIKey
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", c.apiKey)
	endpoint := tmdbBaseURL + path + "?" + q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return decodeJSONResponse(c.httpc, req, "tmdb", v)
}

// tmdbSearchResult is the slice element shape shared by movie and tv search.
type tmdbSearchResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	Overview     string  `json:"overview"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int64 `json:"genre_ids"`
}

// searchID resolves a title to a TMDB ID in one page-1 search. A search with
// no results returns (0, nil); only transport/decode problems surface as an
// error so callers can log the distinction.
func (c *tmdbClient) searchID(ctx context.Context, mediaType, query, locale string, year int) (int64, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("language", locale)
	q.Set("page", "1")
	if year > 0 {
		if mediaType == "movie" {
			q.Set("primary_release_year", strconv.Itoa(year))
		} else {
			q.Set("first_air_date_year", strconv.Itoa(year))
		}
	}

	var resp struct {
		Results []tmdbSearchResult `json:"results"`
	}
	if err := c.doGET(ctx, "/search/"+mediaType, q, &resp); err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 {
		return 0, nil
	}
	return resp.Results[0].ID, nil
}

type tmdbVideo struct {
	Key      string `json:"key"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Official bool   `json:"official"`
}

func (c *tmdbClient) videos(ctx context.Context, mediaType string, id int64, locale string) ([]tmdbVideo, error) {
	q := url.Values{}
	q.Set("language", locale)
	var resp struct {
		Results []tmdbVideo `json:"results"`
	}
	if err := c.doGET(ctx, fmt.Sprintf("/%s/%d/videos", mediaType, id), q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// pickTrailerKey selects the best YouTube video key from a TMDB video list.
// YouTube-hosted trailers win over teasers, teasers over anything else, and
// within a class official uploads come first. Empty string means no usable
// candidate.
func pickTrailerKey(videos []tmdbVideo) string {
	youtube := make([]tmdbVideo, 0, len(videos))
	for _, v := range videos {
		if strings.EqualFold(strings.TrimSpace(v.Site), "youtube") && strings.TrimSpace(v.Key) != "" {
			youtube = append(youtube, v)
		}
	}
	if len(youtube) == 0 {
		return ""
	}

	officialFirst := func(list []tmdbVideo) []tmdbVideo {
		sorted := append([]tmdbVideo(nil), list...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Official && !sorted[j].Official
		})
		return sorted
	}
	ofType := func(kind string) []tmdbVideo {
		out := make([]tmdbVideo, 0, len(youtube))
		for _, v := range youtube {
			if strings.EqualFold(strings.TrimSpace(v.Type), kind) {
				out = append(out, v)
			}
		}
		return out
	}

	candidates := officialFirst(ofType("trailer"))
	if len(candidates) == 0 {
		candidates = officialFirst(ofType("teaser"))
	}
	if len(candidates) == 0 {
		candidates = officialFirst(youtube)
	}
	return candidates[0].Key
}

type tmdbProvider struct {
	ProviderID   int64  `json:"provider_id"`
	ProviderName string `json:"provider_name"`
}

type tmdbProviderBundle struct {
	Link     string         `json:"link"`
	Flatrate []tmdbProvider `json:"flatrate"`
	Rent     []tmdbProvider `json:"rent"`
	Buy      []tmdbProvider `json:"buy"`
}

// watchProviders fetches the provider bundle for the client's region. A title
// with no offering in the region returns an empty bundle, not an error.
func (c *tmdbClient) watchProviders(ctx context.Context, mediaType string, id int64) (tmdbProviderBundle, error) {
	var resp struct {
		Results map[string]tmdbProviderBundle `json:"results"`
	}
	if err := c.doGET(ctx, fmt.Sprintf("/%s/%d/watch/providers", mediaType, id), nil, &resp); err != nil {
		return tmdbProviderBundle{}, err
	}
	return resp.Results[c.region], nil
}

// watchPageURL is the TMDB watch page used as link target when the provider
// bundle carries no per-region link.
func (c *tmdbClient) watchPageURL(mediaType string, id int64, locale string) string {
	return fmt.Sprintf("https://www.themoviedb.org/%s/%d/watch?locale=%s", mediaType, id, locale)
}

// tvDetail reads season/episode counts off the show detail record. No
// computation, just two integer fields.
func (c *tmdbClient) tvDetail(ctx context.Context, id int64, locale string) (seasons, episodes int, err error) {
	q := url.Values{}
	q.Set("language", locale)
	var resp struct {
		NumberOfSeasons  int `json:"number_of_seasons"`
		NumberOfEpisodes int `json:"number_of_episodes"`
	}
	if err := c.doGET(ctx, fmt.Sprintf("/tv/%d", id), q, &resp); err != nil {
		return 0, 0, err
	}
	return resp.NumberOfSeasons, resp.NumberOfEpisodes, nil
}

// upcomingMovies returns the region's upcoming movie feed.
func (c *tmdbClient) upcomingMovies(ctx context.Context, locale string) ([]tmdbSearchResult, error) {
	q := url.Values{}
	q.Set("language", locale)
	q.Set("region", c.region)
	q.Set("page", "1")
	var resp struct {
		Results []tmdbSearchResult `json:"results"`
	}
	if err := c.doGET(ctx, "/movie/upcoming", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// bestMovies queries discover with a vote floor, mirroring the "best movies"
// browse page.
func (c *tmdbClient) bestMovies(ctx context.Context, locale string, minVote float64, minVotes, fromYear, toYear, page int) ([]tmdbSearchResult, error) {
	q := url.Values{}
	q.Set("language", locale)
	q.Set("sort_by", "vote_average.desc")
	q.Set("vote_average.gte", strconv.FormatFloat(minVote, 'f', -1, 64))
	q.Set("vote_count.gte", strconv.Itoa(minVotes))
	q.Set("primary_release_date.gte", fmt.Sprintf("%d-01-01", fromYear))
	q.Set("primary_release_date.lte", fmt.Sprintf("%d-12-31", toYear))
	q.Set("page", strconv.Itoa(page))
	var resp struct {
		Results []tmdbSearchResult `json:"results"`
	}
	if err := c.doGET(ctx, "/discover/movie", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// bestSeries is the TV counterpart of bestMovies, with the discover date
// bounds switched to first air dates.
func (c *tmdbClient) bestSeries(ctx context.Context, locale string, minVote float64, minVotes, fromYear, toYear, page int) ([]tmdbSearchResult, error) {
	q := url.Values{}
	q.Set("language", locale)
	q.Set("sort_by", "vote_average.desc")
	q.Set("vote_average.gte", strconv.FormatFloat(minVote, 'f', -1, 64))
	q.Set("vote_count.gte", strconv.Itoa(minVotes))
	q.Set("first_air_date.gte", fmt.Sprintf("%d-01-01", fromYear))
	q.Set("first_air_date.lte", fmt.Sprintf("%d-12-31", toYear))
	q.Set("page", strconv.Itoa(page))
	var resp struct {
		Results []tmdbSearchResult `json:"results"`
	}
	if err := c.doGET(ctx, "/discover/tv", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// onTheAirSeries returns currently airing series.
func (c *tmdbClient) onTheAirSeries(ctx context.Context, locale string, page int) ([]tmdbSearchResult, error) {
	q := url.Values{}
	q.Set("language", locale)
	q.Set("page", strconv.Itoa(page))
	var resp struct {
		Results []tmdbSearchResult `json:"results"`
	}
	if err := c.doGET(ctx, "/tv/on_the_air", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// genres returns the id->name genre table for a media type.
func (c *tmdbClient) genres(ctx context.Context, mediaType, locale string) (map[int64]string, error) {
	q := url.Values{}
	q.Set("language", locale)
	var resp struct {
		Genres []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"genres"`
	}
	if err := c.doGET(ctx, "/genre/"+mediaType+"/list", q, &resp); err != nil {
		return nil, err
	}
	table := make(map[int64]string, len(resp.Genres))
	for _, g := range resp.Genres {
		table[g.ID] = g.Name
	}
	return table, nil
}

// parseReleaseYear extracts the year from a TMDB date string ("2010-07-16").
func parseReleaseYear(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
